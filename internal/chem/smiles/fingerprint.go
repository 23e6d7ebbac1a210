package smiles

import (
	"encoding/binary"
	"hash/fnv"
	"math/bits"
	"sort"
)

// FingerprintBits is the width of a Fingerprint.
const FingerprintBits = 2048

// MorganRadius is the neighbourhood radius used by Fingerprint.
const MorganRadius = 2

// Fingerprint is a folded circular (Morgan/ECFP-style) bit vector.
type Fingerprint [FingerprintBits / 64]uint64

func (f *Fingerprint) set(h uint64) {
	i := h % FingerprintBits
	f[i/64] |= 1 << (i % 64)
}

// Count returns the number of set bits.
func (f Fingerprint) Count() int {
	n := 0
	for _, w := range f {
		n += bits.OnesCount64(w)
	}
	return n
}

// Fingerprint computes the circular fingerprint of the molecule.
func (m *Molecule) Fingerprint() Fingerprint {
	var fp Fingerprint
	inRing := m.ringAtoms()

	ids := make([]uint64, len(m.Atoms))
	for i, a := range m.Atoms {
		heavy := 0
		for _, b := range m.Neighbors(i) {
			if m.Atoms[b.Other(i)].Symbol != "H" {
				heavy++
			}
		}
		ids[i] = hashInts(
			int64(elements[a.Symbol].number),
			int64(heavy),
			int64(a.HCount),
			int64(a.Charge),
			boolInt(a.Aromatic),
			boolInt(inRing[i]),
		)
		fp.set(ids[i])
	}

	type env struct {
		order int
		id    uint64
	}
	for r := 1; r <= MorganRadius; r++ {
		next := make([]uint64, len(ids))
		for i := range m.Atoms {
			nb := m.Neighbors(i)
			envs := make([]env, 0, len(nb))
			for _, b := range nb {
				envs = append(envs, env{order: b.Order, id: ids[b.Other(i)]})
			}
			sort.Slice(envs, func(x, y int) bool {
				if envs[x].order != envs[y].order {
					return envs[x].order < envs[y].order
				}
				return envs[x].id < envs[y].id
			})
			vals := []int64{int64(r), int64(ids[i])}
			for _, e := range envs {
				vals = append(vals, int64(e.order), int64(e.id))
			}
			next[i] = hashInts(vals...)
			fp.set(next[i])
		}
		ids = next
	}
	return fp
}

// Tanimoto returns the Tanimoto (Jaccard) coefficient of two fingerprints.
// Two empty fingerprints have similarity 0.
func Tanimoto(a, b Fingerprint) float64 {
	var both Fingerprint
	for i := range a {
		both[i] = a[i] & b[i]
	}
	inter := both.Count()
	union := a.Count() + b.Count() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Similarity parses both SMILES and returns their Tanimoto similarity.
func Similarity(smi1, smi2 string) (float64, error) {
	m1, err := Parse(smi1)
	if err != nil {
		return 0, err
	}
	m2, err := Parse(smi2)
	if err != nil {
		return 0, err
	}
	return Tanimoto(m1.Fingerprint(), m2.Fingerprint()), nil
}

func hashInts(vals ...int64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
