package chem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soyeahso/chemkit/internal/chem/chemspace"
	"github.com/soyeahso/chemkit/internal/chem/pubchem"
	"github.com/soyeahso/chemkit/internal/chem/smiles"
)

// Messages returned for lookups that found nothing.
const (
	MsgNoPubChemEntry    = "Invalid molecule input, no Pubchem entry"
	MsgCASNotFound       = "CAS number not found"
	MsgMultipleSMILES    = "Multiple SMILES strings detected, input one molecule at a time."
	MsgNameNotFound      = "Could not find a molecule matching the text. One possible cause is that the input is incorrect, input one molecule at a time."
	MsgUnknownMolecule   = "Unknown Molecule"
	MsgIdenticalMols     = "Error: Input Molecules Are Identical"
	MsgSimilarityArity   = "Input error, please input two SMILES strings separated by a space."
	MsgNoFunctionalGroup = "This molecule contains no recognized functional groups."
)

// flagged reports whether a controlled-chemical check message warns about
// the molecule.
func flagged(msg string) bool {
	return strings.Contains(msg, "high similarity") || strings.Contains(msg, "appears")
}

// Query2CAS resolves a name or SMILES to a CAS number.
func (d *Default) Query2CAS() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		query = strings.TrimSpace(query)
		cid, err := d.pubchem.ResolveCID(ctx, query)
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgNoPubChemEntry, nil
		}
		if err != nil {
			return nil, err
		}

		cas, err := d.pubchem.CAS(ctx, cid)
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgCASNotFound, nil
		}
		if err != nil {
			return nil, err
		}

		msg, err := d.controlCheck(ctx, cas)
		if err != nil {
			return nil, err
		}
		if flagged(msg) {
			return fmt.Sprintf("CAS number %s found, but %s", cas, msg), nil
		}
		return cas, nil
	})
}

// Query2SMILES converts a molecule name to SMILES, falling back to
// ChemSpace when a key is bound and PubChem has no entry.
func (d *Default) Query2SMILES(chemspaceKey string) Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		query = strings.TrimSpace(query)
		if m, err := smiles.Parse(query); err == nil && m.Components() > 1 {
			return MsgMultipleSMILES, nil
		}

		smi, err := d.nameToSMILES(ctx, query)
		if errors.Is(err, pubchem.ErrNotFound) && chemspaceKey != "" {
			smi, err = d.chemspaceClient(chemspaceKey).SMILES(ctx, query)
		}
		if err != nil {
			if isNotFound(err) {
				return MsgNameNotFound, nil
			}
			return nil, err
		}

		msg, err := d.controlCheck(ctx, smi)
		if err != nil {
			return nil, err
		}
		if flagged(msg) {
			return fmt.Sprintf("SMILES %s found, but %s", smi, msg), nil
		}
		return smi, nil
	})
}

func (d *Default) nameToSMILES(ctx context.Context, query string) (string, error) {
	cid, err := d.pubchem.CID(ctx, pubchem.ByName, query)
	if err != nil {
		return "", err
	}
	props, err := d.pubchem.Properties(ctx, cid)
	if err != nil {
		return "", err
	}
	if props.IsomericSMILES != "" {
		return props.IsomericSMILES, nil
	}
	if props.CanonicalSMILES == "" {
		return "", pubchem.ErrNotFound
	}
	return props.CanonicalSMILES, nil
}

// SMILES2Name returns the IUPAC name of a molecule.
func (d *Default) SMILES2Name() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		query = strings.TrimSpace(query)
		if _, err := smiles.Parse(query); err != nil {
			return nil, err
		}

		name, err := d.smilesToName(ctx, query)
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgUnknownMolecule, nil
		}
		if err != nil {
			return nil, err
		}

		msg, err := d.controlCheck(ctx, query)
		if err != nil {
			return nil, err
		}
		if flagged(msg) {
			return fmt.Sprintf("Molecule name %s found, but %s", name, msg), nil
		}
		return name, nil
	})
}

func (d *Default) smilesToName(ctx context.Context, smi string) (string, error) {
	cid, err := d.pubchem.CID(ctx, pubchem.BySMILES, smi)
	if err != nil {
		return "", err
	}
	props, err := d.pubchem.Properties(ctx, cid)
	if err != nil {
		return "", err
	}
	if props.IUPACName != "" {
		return props.IUPACName, nil
	}
	syns, err := d.pubchem.Synonyms(ctx, cid)
	if err != nil {
		return "", err
	}
	if len(syns) == 0 {
		return "", pubchem.ErrNotFound
	}
	return syns[0], nil
}

// SMILES2Weight returns the average molecular weight in g/mol as a float64.
func (d *Default) SMILES2Weight() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		m, err := smiles.Parse(query)
		if err != nil {
			return nil, err
		}
		return smiles.Round(m.AverageWeight(), 3), nil
	})
}

// FuncGroups lists the functional groups of a molecule as a sentence.
func (d *Default) FuncGroups() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		m, err := smiles.Parse(query)
		if err != nil {
			return nil, err
		}
		return describeGroups(m.FunctionalGroups()), nil
	})
}

func describeGroups(groups []string) string {
	switch len(groups) {
	case 0:
		return MsgNoFunctionalGroup
	case 1:
		return fmt.Sprintf("This molecule contains %s.", groups[0])
	default:
		return fmt.Sprintf("This molecule contains %s, and %s.",
			strings.Join(groups[:len(groups)-1], ", "), groups[len(groups)-1])
	}
}

// similarityBands map a Tanimoto score (rounded to one decimal) to a verdict,
// highest band first.
var similarityBands = []struct {
	min     float64
	verdict string
}{
	{0.9, "very similar"},
	{0.8, "similar"},
	{0.7, "somewhat similar"},
	{0.6, "not very similar"},
	{0, "not similar"},
}

// MolSimilarity compares two whitespace-separated SMILES.
func (d *Default) MolSimilarity() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		parts := strings.Fields(query)
		if len(parts) != 2 {
			return MsgSimilarityArity, nil
		}
		sim, err := smiles.Similarity(parts[0], parts[1])
		if err != nil {
			return nil, err
		}
		if sim == 1 {
			return MsgIdenticalMols, nil
		}

		rounded := math.Round(sim*10) / 10
		verdict := similarityBands[len(similarityBands)-1].verdict
		for _, b := range similarityBands {
			if rounded >= b.min {
				verdict = b.verdict
				break
			}
		}
		return fmt.Sprintf("The Tanimoto similarity between %s and %s is %s, indicating that the two molecules are %s.",
			parts[0], parts[1], formatScore(smiles.Round(sim, 4)), verdict), nil
	})
}

func formatScore(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func isNotFound(err error) bool {
	return errors.Is(err, pubchem.ErrNotFound) || errors.Is(err, chemspace.ErrNotFound)
}
