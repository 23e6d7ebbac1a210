package chem

import (
	"context"
	"errors"
	"strings"

	"github.com/soyeahso/chemkit/internal/chem/chemspace"
	"github.com/soyeahso/chemkit/internal/chem/pubchem"
	"github.com/soyeahso/chemkit/internal/chem/scholar"
	"github.com/soyeahso/chemkit/internal/chem/smiles"
	"github.com/soyeahso/chemkit/internal/llm"
)

const (
	MsgNoPapers        = "No relevant papers found for this question."
	MsgNotPurchasable  = "The molecule is not available for purchase."
	MsgPriceNoMolecule = "Could not resolve the molecule to a SMILES string for a price lookup."
)

const scholarPrompt = `You are a chemistry research assistant. Answer the question using only the papers listed below.
Cite papers inline by their bracketed number, e.g. [2]. If the papers do not answer the question, say so.`

// Scholar2ResultLLM answers a question from Semantic Scholar papers. When
// client is nil a chat client is built from openaiKey.
func (d *Default) Scholar2ResultLLM(client llm.Client, openaiKey, s2Key string) Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		c, err := clientOrDefault(client, openaiKey)
		if err != nil {
			return nil, err
		}

		papers, err := d.scholarClient(s2Key).Search(ctx, query, d.cfg.ScholarLimit)
		if err != nil {
			return nil, err
		}
		if len(papers) == 0 {
			return MsgNoPapers, nil
		}

		resp, err := c.Complete(ctx, llm.CompletionRequest{
			System: scholarPrompt,
			Messages: []llm.Message{{
				Role:    llm.RoleUser,
				Content: "Question: " + query + "\n\nPapers:\n" + scholar.Format(papers),
			}},
		})
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(resp.Content), nil
	})
}

func clientOrDefault(client llm.Client, openaiKey string) (llm.Client, error) {
	if client != nil {
		return client, nil
	}
	return llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: openaiKey})
}

// WebSearch runs a Google search through SerpAPI.
func (d *Default) WebSearch(serpKey string) Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		return d.serpClient(serpKey).Search(ctx, strings.TrimSpace(query))
	})
}

// GetMoleculePrice returns the cheapest ChemSpace offer for a molecule given
// as SMILES or name.
func (d *Default) GetMoleculePrice(chemspaceKey string) Tool {
	return ToolFunc(func(ctx context.Context, query string) (any, error) {
		query = strings.TrimSpace(query)
		cs := d.chemspaceClient(chemspaceKey)

		smi := query
		if !smiles.Valid(query) {
			var err error
			smi, err = d.nameToSMILES(ctx, query)
			if errors.Is(err, pubchem.ErrNotFound) {
				smi, err = cs.SMILES(ctx, query)
			}
			if isNotFound(err) {
				return MsgPriceNoMolecule, nil
			}
			if err != nil {
				return nil, err
			}
		}

		offer, err := cs.Cheapest(ctx, smi)
		if errors.Is(err, chemspace.ErrNotFound) {
			return MsgNotPurchasable, nil
		}
		if err != nil {
			return nil, err
		}
		return offer.String(), nil
	})
}
