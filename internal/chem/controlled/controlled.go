// Package controlled holds the built-in list of controlled chemicals
// (chemical weapons convention schedules and controlled substances).
package controlled

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"
	"sync"

	"github.com/soyeahso/chemkit/internal/chem/smiles"
)

//go:embed chemicals.csv
var chemicalsCSV []byte

// Chemical is one entry of the list.
type Chemical struct {
	Name     string
	CAS      string
	SMILES   string
	Schedule string
}

// List is a searchable controlled-chemical list.
type List struct {
	chemicals []Chemical
	byCAS     map[string]int

	once sync.Once
	fps  []*smiles.Fingerprint // nil entries failed to parse
}

var (
	defaultOnce sync.Once
	defaultList *List
	defaultErr  error
)

// Default returns the embedded list.
func Default() (*List, error) {
	defaultOnce.Do(func() {
		defaultList, defaultErr = Parse(chemicalsCSV)
	})
	return defaultList, defaultErr
}

// Parse reads a CSV with a name,cas,smiles,schedule header.
func Parse(data []byte) (*List, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 4
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse controlled chemicals: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse controlled chemicals: empty list")
	}

	l := &List{byCAS: make(map[string]int)}
	for _, rec := range records[1:] {
		c := Chemical{
			Name:     strings.TrimSpace(rec[0]),
			CAS:      strings.TrimSpace(rec[1]),
			SMILES:   strings.TrimSpace(rec[2]),
			Schedule: strings.TrimSpace(rec[3]),
		}
		if c.CAS != "" {
			l.byCAS[c.CAS] = len(l.chemicals)
		}
		l.chemicals = append(l.chemicals, c)
	}
	return l, nil
}

// Len returns the number of entries.
func (l *List) Len() int { return len(l.chemicals) }

// ByCAS finds an entry by CAS number.
func (l *List) ByCAS(cas string) (Chemical, bool) {
	i, ok := l.byCAS[strings.TrimSpace(cas)]
	if !ok {
		return Chemical{}, false
	}
	return l.chemicals[i], true
}

func (l *List) fingerprints() []*smiles.Fingerprint {
	l.once.Do(func() {
		l.fps = make([]*smiles.Fingerprint, len(l.chemicals))
		for i, c := range l.chemicals {
			m, err := smiles.Parse(c.SMILES)
			if err != nil {
				continue
			}
			fp := m.Fingerprint()
			l.fps[i] = &fp
		}
	})
	return l.fps
}

// MostSimilar returns the entry with the highest Tanimoto similarity to
// the molecule and that similarity.
func (l *List) MostSimilar(smi string) (Chemical, float64, error) {
	m, err := smiles.Parse(smi)
	if err != nil {
		return Chemical{}, 0, err
	}
	fp := m.Fingerprint()

	best, bestSim := -1, -1.0
	for i, other := range l.fingerprints() {
		if other == nil {
			continue
		}
		if sim := smiles.Tanimoto(fp, *other); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 {
		return Chemical{}, 0, fmt.Errorf("controlled chemical list has no usable structures")
	}
	return l.chemicals[best], bestSim, nil
}
