package chem

import (
	"context"
	"strings"

	"github.com/soyeahso/chemkit/internal/chem/rxn"
	"github.com/soyeahso/chemkit/internal/chem/smiles"
	"github.com/soyeahso/chemkit/internal/llm"
)

const routePrompt = `Here is a chemical synthesis route, given as numbered reaction SMILES steps from starting materials to the target.
Your task is to describe the synthesis as if you were giving instructions for a recipe.
Use only the substances and steps given. Name every substance you can, and for each step state the reactants and the product.`

// RXNPredict predicts the product of a reaction with IBM RXN. The input is
// reactant SMILES joined with '.'.
func (d *Default) RXNPredict(rxnKey string) Tool {
	client := d.rxnClient(rxnKey)
	return ToolFunc(func(ctx context.Context, reactants string) (any, error) {
		reactants = strings.TrimSpace(reactants)
		if _, err := smiles.Parse(reactants); err != nil {
			return nil, err
		}
		return client.PredictProduct(ctx, reactants)
	})
}

// RXNRetrosynthesis plans a route with IBM RXN and has the LLM describe the
// best one. When client is nil a chat client is built from openaiKey.
func (d *Default) RXNRetrosynthesis(rxnKey, openaiKey string, client llm.Client) Tool {
	rc := d.rxnClient(rxnKey)
	return ToolFunc(func(ctx context.Context, target string) (any, error) {
		target = strings.TrimSpace(target)
		if _, err := smiles.Parse(target); err != nil {
			return nil, err
		}
		c, err := clientOrDefault(client, openaiKey)
		if err != nil {
			return nil, err
		}

		routes, err := rc.Retrosynthesis(ctx, target)
		if err != nil {
			return nil, err
		}
		route := routes[0].String()

		resp, err := c.Complete(ctx, llm.CompletionRequest{
			System:   routePrompt,
			Messages: []llm.Message{{Role: llm.RoleUser, Content: route}},
		})
		if err != nil {
			return nil, err
		}
		return route + "\n\n" + strings.TrimSpace(resp.Content), nil
	})
}

// RXNPredictLocal predicts reaction products with the locally served model.
func (d *Default) RXNPredictLocal() Tool {
	m := rxn.NewLocal("local-rxn-predict", d.cfg.LocalPredictURL)
	return ToolFunc(func(ctx context.Context, reactants string) (any, error) {
		reactants = strings.TrimSpace(reactants)
		if _, err := smiles.Parse(reactants); err != nil {
			return nil, err
		}
		return m.PredictProduct(ctx, reactants)
	})
}

// RXNRetrosynthesisLocal suggests precursors with the locally served model.
func (d *Default) RXNRetrosynthesisLocal() Tool {
	m := rxn.NewLocal("local-rxn-retro", d.cfg.LocalRetroURL)
	return ToolFunc(func(ctx context.Context, target string) (any, error) {
		target = strings.TrimSpace(target)
		if _, err := smiles.Parse(target); err != nil {
			return nil, err
		}
		ps, err := m.Precursors(ctx, target)
		if err != nil {
			return nil, err
		}
		return rxn.FormatPrecursors(target, ps), nil
	})
}
