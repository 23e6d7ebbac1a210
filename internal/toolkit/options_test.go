package toolkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_Defaults(t *testing.T) {
	opts, warnings := ParseOptions(nil)
	assert.Empty(t, warnings)
	assert.Equal(t, "gpt-3.5-turbo", opts.LLMModel)
	assert.Equal(t, 0.1, opts.Temperature)
	assert.False(t, opts.LocalRXN)
	assert.Equal(t, "http://localhost:8051", opts.LocalPredictURL)
	assert.Equal(t, "http://localhost:8052", opts.LocalRetroURL)
	assert.Equal(t, "https://rxn.res.ibm.com", opts.RXN4ChemBaseURL)
	assert.Empty(t, opts.OpenAIAPIKey)
}

func TestParseOptions_Temperature(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{0.7, 0.7},
		{float32(0.5), 0.5},
		{1, 1},
		{int64(2), 2},
		{"0.3", 0.3},
		{" 0.2 ", 0.2},
	}
	for _, tt := range tests {
		opts, warnings := ParseOptions(map[string]any{"temperature": tt.in})
		assert.Empty(t, warnings)
		assert.InDelta(t, tt.want, opts.Temperature, 1e-6, "%v", tt.in)
	}

	opts, warnings := ParseOptions(map[string]any{"temperature": "hot"})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "temperature")
	assert.Equal(t, DefaultTemperature, opts.Temperature)
}

func TestParseOptions_LocalRXN(t *testing.T) {
	for in, want := range map[any]bool{true: true, false: false, "true": true, "False": false, "1": true} {
		opts, warnings := ParseOptions(map[string]any{"local_rxn": in})
		assert.Empty(t, warnings)
		assert.Equal(t, want, opts.LocalRXN, "%v", in)
	}

	opts, warnings := ParseOptions(map[string]any{"local_rxn": "sometimes"})
	assert.Len(t, warnings, 1)
	assert.False(t, opts.LocalRXN)
}

func TestParseOptions_Strings(t *testing.T) {
	opts, warnings := ParseOptions(map[string]any{
		"llm_model":                "gpt-4o",
		"openai_api_key":           " sk-1 ",
		"openai_api_base":          "http://localhost:11434/v1",
		"serp_api_key":             "serp",
		"chemspace_api_key":        "cs",
		"rxn4chem_api_key":         "rxn",
		"semantic_scholar_api_key": "s2",
		"local_rxn_predict_url":    "http://gpu:9000",
		"local_rxn_retro_url":      "http://gpu:9001",
		"rxn4chem_base_url":        "http://rxn.local",
		"unknown_key":              42,
		"llm_model_empty":          "",
	})
	assert.Empty(t, warnings)
	assert.Equal(t, Options{
		LLMModel:              "gpt-4o",
		Temperature:           DefaultTemperature,
		LocalPredictURL:       "http://gpu:9000",
		LocalRetroURL:         "http://gpu:9001",
		RXN4ChemBaseURL:       "http://rxn.local",
		OpenAIAPIKey:          "sk-1",
		OpenAIAPIBase:         "http://localhost:11434/v1",
		SerpAPIKey:            "serp",
		ChemSpaceAPIKey:       "cs",
		RXN4ChemAPIKey:        "rxn",
		SemanticScholarAPIKey: "s2",
	}, opts)
}

func TestParseOptions_WrongTypes(t *testing.T) {
	opts, warnings := ParseOptions(map[string]any{
		"llm_model":    12,
		"serp_api_key": true,
		"temperature":  nil,
	})
	assert.Len(t, warnings, 2)
	assert.Equal(t, "gpt-3.5-turbo", opts.LLMModel)
	assert.Empty(t, opts.SerpAPIKey)
}

func TestParseOptions_EmptyStringKeepsDefault(t *testing.T) {
	opts, _ := ParseOptions(map[string]any{"llm_model": "  "})
	assert.Equal(t, "gpt-3.5-turbo", opts.LLMModel)
}
