package chem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/chemkit/internal/chem/pubchem"
	"github.com/soyeahso/chemkit/internal/chem/smiles"
	"github.com/soyeahso/chemkit/internal/llm"
)

// HighSimilarityThreshold is the Tanimoto score above which a molecule is
// reported as close to a controlled chemical.
const HighSimilarityThreshold = 0.35

const (
	MsgGHSUnavailable    = "Explosive Check Error. The molecule may not be assigned a GHS rating."
	MsgExplosive         = "Molecule is explosive"
	MsgNotExplosive      = "Molecule is not known to be explosive"
	MsgSafetyUnavailable = "Safety summary not available: no PubChem safety data for this molecule."
	MsgControlUnresolved = "Could not resolve the molecule to check it against the list of controlled chemicals."
)

// ControlChemCheck reports whether a CAS number or SMILES is on the
// controlled-chemical list, falling back to a similarity check.
func (d *Default) ControlChemCheck() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		return d.controlCheck(ctx, strings.TrimSpace(query))
	})
}

func (d *Default) controlCheck(ctx context.Context, query string) (string, error) {
	list, err := d.controlledList()
	if err != nil {
		return "", err
	}

	if pubchem.IsCAS(query) {
		if _, ok := list.ByCAS(query); ok {
			return appearsMsg(query), nil
		}
		smi, err := d.nameToSMILES(ctx, query)
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgControlUnresolved, nil
		}
		if err != nil {
			return "", err
		}
		return d.similarControlCheck(smi)
	}

	if _, err := smiles.Parse(query); err != nil {
		smi, lookupErr := d.nameToSMILES(ctx, query)
		if errors.Is(lookupErr, pubchem.ErrNotFound) {
			return MsgControlUnresolved, nil
		}
		if lookupErr != nil {
			return "", lookupErr
		}
		query = smi
	}

	_, sim, err := list.MostSimilar(query)
	if err != nil {
		return "", err
	}
	if sim == 1 {
		return appearsMsg(query), nil
	}
	return d.similarControlCheck(query)
}

func appearsMsg(q string) string {
	return fmt.Sprintf("The molecule %s appears in a list of controlled chemicals.", q)
}

// SimilarControlChemCheck compares a SMILES against the controlled list.
func (d *Default) SimilarControlChemCheck() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		return d.similarControlCheck(strings.TrimSpace(query))
	})
}

func (d *Default) similarControlCheck(smi string) (string, error) {
	list, err := d.controlledList()
	if err != nil {
		return "", err
	}
	match, sim, err := list.MostSimilar(smi)
	if err != nil {
		return "", err
	}
	d.log.Debug().Str("smiles", smi).Str("closest", match.Name).Float64("similarity", sim).Msg("controlled similarity")
	if sim > HighSimilarityThreshold {
		return fmt.Sprintf("%s has a high similarity (%.4g) to a known controlled chemical.", smi, sim), nil
	}
	return fmt.Sprintf("%s has a low similarity (%.4g) to a known controlled chemical. This substance is safe, you may proceed with the task.", smi, sim), nil
}

// PatentCheck reports "Patented" or "Novel" for each dot-separated molecule.
// The result is a map keyed by SMILES.
func (d *Default) PatentCheck() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		out := map[string]string{}
		for _, smi := range strings.Split(strings.TrimSpace(query), ".") {
			if _, err := smiles.Parse(smi); err != nil {
				return nil, err
			}
			n, err := d.pubchem.PatentCount(ctx, smi)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				out[smi] = "Patented"
			} else {
				out[smi] = "Novel"
			}
		}
		return out, nil
	})
}

// ExplosiveCheck inspects the GHS classification of a CAS number.
func (d *Default) ExplosiveCheck() Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		cid, err := d.pubchem.ResolveCID(ctx, strings.TrimSpace(query))
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgGHSUnavailable, nil
		}
		if err != nil {
			return nil, err
		}
		ghs, err := d.pubchem.GHSClassification(ctx, cid)
		if errors.Is(err, pubchem.ErrNotFound) || (err == nil && ghs == "") {
			return MsgGHSUnavailable, nil
		}
		if err != nil {
			return nil, err
		}
		if strings.Contains(ghs, "Explos") || strings.Contains(ghs, "explos") {
			return MsgExplosive, nil
		}
		return MsgNotExplosive, nil
	})
}

const safetyPrompt = `Your task is to parse through the data provided and provide a summary of important health, laboratory, and environmental safety information.
Focus on answering the following points, and follow the format "Name: description".
Operator safety: Does this substance represent any danger to the person handling it? What are the risks? What precautions should be taken when handling this substance?
GHS information: What are the GHS signal (hazard level: dangerous, warning, etc.) and GHS classification? What do these GHS classifications mean when dealing with this substance?
Environmental risks: What are the environmental impacts of handling this substance.
Societal impact: What are the societal concerns of this substance? For instance, is it a known chemical weapon, is it illegal, or is it a controlled substance for any reason?
For each point, use maximum two sentences. Use only the information provided in the paragraph below.
If there is not enough information in a category, you may fill in with your knowledge, but explicitly state so.`

// SafetySummary summarizes PubChem safety data with the LLM.
func (d *Default) SafetySummary(client llm.Client) Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		cid, err := d.pubchem.ResolveCID(ctx, strings.TrimSpace(query))
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgSafetyUnavailable, nil
		}
		if err != nil {
			return nil, err
		}
		text, err := d.pubchem.SafetyText(ctx, cid, d.cfg.SafetyMaxChars)
		if errors.Is(err, pubchem.ErrNotFound) {
			return MsgSafetyUnavailable, nil
		}
		if err != nil {
			return nil, err
		}

		resp, err := client.Complete(ctx, llm.CompletionRequest{
			System:   safetyPrompt,
			Messages: []llm.Message{{Role: llm.RoleUser, Content: "Here is the data:\n" + text}},
		})
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(resp.Content), nil
	})
}
