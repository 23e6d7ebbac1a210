package toolkit

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Credentials is the resolved set of API keys. A non-empty configuration
// value takes precedence over the environment.
type Credentials struct {
	OpenAIAPIKey          string
	OpenAIAPIBase         string
	SerpAPIKey            string
	ChemSpaceAPIKey       string
	RXN4ChemAPIKey        string
	SemanticScholarAPIKey string
}

// environment is the credential set as read from process environment.
type environment struct {
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	OpenAIAPIBase         string `envconfig:"OPENAI_API_BASE"`
	SerpAPIKey            string `envconfig:"SERP_API_KEY"`
	ChemSpaceAPIKey       string `envconfig:"CHEMSPACE_API_KEY"`
	RXN4ChemAPIKey        string `envconfig:"RXN4CHEM_API_KEY"`
	SemanticScholarAPIKey string `envconfig:"SEMANTIC_SCHOLAR_API_KEY"`
}

// ResolveCredentials merges configured values with the environment.
func ResolveCredentials(opts Options) (Credentials, error) {
	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return Credentials{}, fmt.Errorf("reading credential environment: %w", err)
	}
	return Credentials{
		OpenAIAPIKey:          firstNonEmpty(opts.OpenAIAPIKey, env.OpenAIAPIKey),
		OpenAIAPIBase:         firstNonEmpty(opts.OpenAIAPIBase, env.OpenAIAPIBase),
		SerpAPIKey:            firstNonEmpty(opts.SerpAPIKey, env.SerpAPIKey),
		ChemSpaceAPIKey:       firstNonEmpty(opts.ChemSpaceAPIKey, env.ChemSpaceAPIKey),
		RXN4ChemAPIKey:        firstNonEmpty(opts.RXN4ChemAPIKey, env.RXN4ChemAPIKey),
		SemanticScholarAPIKey: firstNonEmpty(opts.SemanticScholarAPIKey, env.SemanticScholarAPIKey),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Masked returns the credentials keyed by configuration name with secret
// values obscured. The API base URL is not secret and is shown as is.
func (c Credentials) Masked() map[string]string {
	return map[string]string{
		KeyOpenAIAPIKey:       mask(c.OpenAIAPIKey),
		KeyOpenAIAPIBase:      orUnset(c.OpenAIAPIBase),
		KeySerpAPIKey:         mask(c.SerpAPIKey),
		KeyChemSpaceAPIKey:    mask(c.ChemSpaceAPIKey),
		KeyRXN4ChemAPIKey:     mask(c.RXN4ChemAPIKey),
		KeySemanticScholarKey: mask(c.SemanticScholarAPIKey),
	}
}

const unset = "(not set)"

func mask(s string) string {
	switch {
	case s == "":
		return unset
	case len(s) <= 8:
		return "****"
	default:
		return s[:3] + "****" + s[len(s)-2:]
	}
}

func orUnset(s string) string {
	if s == "" {
		return unset
	}
	return s
}
