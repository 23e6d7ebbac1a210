package toolkit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soyeahso/chemkit/internal/chem/rxn"
	"github.com/soyeahso/chemkit/internal/llm"
)

// Recognized configuration keys.
const (
	KeyLLMModel           = "llm_model"
	KeyTemperature        = "temperature"
	KeyOpenAIAPIKey       = "openai_api_key"
	KeyOpenAIAPIBase      = "openai_api_base"
	KeySerpAPIKey         = "serp_api_key"
	KeyChemSpaceAPIKey    = "chemspace_api_key"
	KeyRXN4ChemAPIKey     = "rxn4chem_api_key"
	KeySemanticScholarKey = "semantic_scholar_api_key"
	KeyLocalRXN           = "local_rxn"
	KeyLocalPredictURL    = "local_rxn_predict_url"
	KeyLocalRetroURL      = "local_rxn_retro_url"
	KeyRXN4ChemBaseURL    = "rxn4chem_base_url"
)

// DefaultTemperature is the sampling temperature of the toolkit's LLM.
const DefaultTemperature = 0.1

// DefaultRXN4ChemURL is the public IBM RXN service.
const DefaultRXN4ChemURL = "https://rxn.res.ibm.com"

// Options is the typed view of a toolkit configuration mapping.
type Options struct {
	LLMModel    string
	Temperature float64
	LocalRXN    bool

	LocalPredictURL string
	LocalRetroURL   string
	RXN4ChemBaseURL string

	// Credential values given in configuration. Empty means "fall back to
	// the environment".
	OpenAIAPIKey          string
	OpenAIAPIBase         string
	SerpAPIKey            string
	ChemSpaceAPIKey       string
	RXN4ChemAPIKey        string
	SemanticScholarAPIKey string
}

// ParseOptions reads a configuration mapping. Values of the wrong type are
// ignored in favour of the default and reported as warnings; unknown keys
// are ignored.
func ParseOptions(m map[string]any) (Options, []string) {
	opts := Options{
		LLMModel:        llm.DefaultModel,
		Temperature:     DefaultTemperature,
		LocalPredictURL: rxn.DefaultLocalPredictURL,
		LocalRetroURL:   rxn.DefaultLocalRetroURL,
		RXN4ChemBaseURL: DefaultRXN4ChemURL,
	}
	var warnings []string
	warn := func(key string, v any) {
		warnings = append(warnings, fmt.Sprintf("%s: ignoring value %v of type %T", key, v, v))
	}

	for key, v := range m {
		if v == nil {
			continue
		}
		switch key {
		case KeyTemperature:
			f, ok := toFloat(v)
			if !ok {
				warn(key, v)
				continue
			}
			opts.Temperature = f
		case KeyLocalRXN:
			b, ok := toBool(v)
			if !ok {
				warn(key, v)
				continue
			}
			opts.LocalRXN = b
		default:
			dst := opts.stringField(key)
			if dst == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				warn(key, v)
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				*dst = s
			}
		}
	}
	return opts, warnings
}

func (o *Options) stringField(key string) *string {
	switch key {
	case KeyLLMModel:
		return &o.LLMModel
	case KeyOpenAIAPIKey:
		return &o.OpenAIAPIKey
	case KeyOpenAIAPIBase:
		return &o.OpenAIAPIBase
	case KeySerpAPIKey:
		return &o.SerpAPIKey
	case KeyChemSpaceAPIKey:
		return &o.ChemSpaceAPIKey
	case KeyRXN4ChemAPIKey:
		return &o.RXN4ChemAPIKey
	case KeySemanticScholarKey:
		return &o.SemanticScholarAPIKey
	case KeyLocalPredictURL:
		return &o.LocalPredictURL
	case KeyLocalRetroURL:
		return &o.LocalRetroURL
	case KeyRXN4ChemBaseURL:
		return &o.RXN4ChemBaseURL
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}
