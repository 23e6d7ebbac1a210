package rxn

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/chemkit/internal/chem/webapi"
)

const (
	DefaultLocalPredictURL = "http://localhost:8051"
	DefaultLocalRetroURL   = "http://localhost:8052"
)

// LocalModel is a self-hosted single-step model served at
// POST {url}/api/v1/run with body {"smiles": [...]}.
type LocalModel struct {
	api *webapi.Client
}

// NewLocal creates a client for a locally served model.
func NewLocal(name, baseURL string) *LocalModel {
	return &LocalModel{api: webapi.New(name, baseURL)}
}

func (m *LocalModel) run(ctx context.Context, smi string) (gjson.Result, error) {
	data, err := m.api.Do(ctx, http.MethodPost, "/api/v1/run", map[string]any{"smiles": []string{smi}})
	if err != nil {
		return gjson.Result{}, err
	}
	res := gjson.ParseBytes(data)
	if res.IsArray() {
		res = res.Get("0")
	}
	return res, nil
}

// PredictProduct returns the top-ranked product for the reactants.
func (m *LocalModel) PredictProduct(ctx context.Context, reactants string) (string, error) {
	res, err := m.run(ctx, reactants)
	if err != nil {
		return "", err
	}
	product := res.Get("product.0").String()
	if product == "" {
		return "", ErrNoResult
	}
	return product, nil
}

// Precursor is one suggested disconnection of a target.
type Precursor struct {
	Reactants string
	Score     float64
}

// Precursors returns ranked single-step precursor sets for a target.
func (m *LocalModel) Precursors(ctx context.Context, target string) ([]Precursor, error) {
	res, err := m.run(ctx, target)
	if err != nil {
		return nil, err
	}
	scores := res.Get("scores").Array()
	var out []Precursor
	for i, r := range res.Get("reactants").Array() {
		p := Precursor{Reactants: r.String()}
		if i < len(scores) {
			p.Score = scores[i].Float()
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoResult
	}
	return out, nil
}

// FormatPrecursors renders precursor suggestions for a target.
func FormatPrecursors(target string, ps []Precursor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggested precursors for %s:\n", target)
	for i, p := range ps {
		fmt.Fprintf(&b, "%d. %s>>%s (score %.2f)\n", i+1, p.Reactants, target, p.Score)
	}
	return strings.TrimSpace(b.String())
}
