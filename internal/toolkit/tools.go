package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/chemkit/internal/agent"
)

// param is one string argument of a tool's JSON input.
type param struct {
	name        string
	description string
}

func inputParam(desc string) []param {
	return []param{{name: "input", description: desc}}
}

var similarityParams = []param{
	{name: "smiles1", description: "SMILES string of the first molecule"},
	{name: "smiles2", description: "SMILES string of the second molecule"},
}

func schema(params []param) string {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		props[p.name] = map[string]string{"type": "string", "description": p.description}
		required = append(required, p.name)
	}
	data, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	return string(data)
}

// toolAdapter exposes one capability as an agent.Tool.
type toolAdapter struct {
	t   *Toolkit
	cap capability
}

func (a toolAdapter) Name() string        { return a.cap.name }
func (a toolAdapter) Description() string { return a.cap.description }
func (a toolAdapter) InputSchema() string { return schema(a.cap.params) }

// Execute decodes the JSON arguments and dispatches to the toolkit. Input
// that is not a JSON object is passed through as the single argument.
func (a toolAdapter) Execute(ctx context.Context, input string) (string, error) {
	args, err := decodeArgs(input, a.cap.params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.cap.name, err)
	}
	if a.cap.name == ToolCheckMoleculeSimilarity {
		return a.t.CheckMoleculeSimilarity(ctx, args[0], args[1])
	}
	return a.t.call(ctx, a.cap.name, args[0])
}

func decodeArgs(input string, params []param) ([]string, error) {
	input = strings.TrimSpace(input)

	var obj map[string]any
	if err := json.Unmarshal([]byte(input), &obj); err != nil || obj == nil {
		var s string
		if json.Unmarshal([]byte(input), &s) == nil {
			input = s
		}
		if len(params) == 1 {
			return []string{input}, nil
		}
		fields := strings.Fields(input)
		if len(fields) != len(params) {
			return nil, fmt.Errorf("expected a JSON object with %s", paramNames(params))
		}
		return fields, nil
	}

	args := make([]string, len(params))
	for i, p := range params {
		v, ok := obj[p.name]
		if !ok {
			return nil, fmt.Errorf("missing argument %q", p.name)
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		args[i] = s
	}
	return args, nil
}

func paramNames(params []param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = `"` + p.name + `"`
	}
	return strings.Join(names, " and ")
}

// Tools returns every capability as an agent tool, in catalog order.
// Disabled capabilities are included and answer with their reason.
func (t *Toolkit) Tools() []agent.Tool {
	out := make([]agent.Tool, len(t.caps))
	for i, c := range t.caps {
		out[i] = toolAdapter{t: t, cap: c}
	}
	return out
}

// Register adds every tool to reg.
func (t *Toolkit) Register(reg *agent.ToolRegistry) {
	for _, tool := range t.Tools() {
		reg.Register(tool)
	}
}
