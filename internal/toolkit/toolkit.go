// Package toolkit exposes the chemistry library as a fixed set of agent
// tools. Capabilities whose optional credentials are missing stay in the
// table as disabled entries and answer with a fixed explanation.
package toolkit

import (
	"context"
	"time"

	"github.com/soyeahso/chemkit/internal/chem"
	"github.com/soyeahso/chemkit/internal/config"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/logging"
)

// Tool names, in catalog order.
const (
	ToolQueryMoleculeCAS                = "query_molecule_cas"
	ToolConvertNameToSMILES             = "convert_name_to_smiles"
	ToolConvertSMILESToName             = "convert_smiles_to_name"
	ToolGetMolecularWeight              = "get_molecular_weight"
	ToolGetFunctionalGroups             = "get_functional_groups"
	ToolCheckMoleculeSimilarity         = "check_molecule_similarity"
	ToolCheckPatent                     = "check_patent"
	ToolCheckExplosive                  = "check_explosive"
	ToolCheckControlledChemical         = "check_controlled_chemical"
	ToolCheckSimilarControlledChemicals = "check_similar_controlled_chemicals"
	ToolGetSafetySummary                = "get_safety_summary"
	ToolSearchScholarlyLiterature       = "search_scholarly_literature"
	ToolWebSearchChemical               = "web_search_chemical"
	ToolGetMoleculePrice                = "get_molecule_price"
	ToolPredictReaction                 = "predict_reaction"
	ToolRetrosynthesisPlanning          = "retrosynthesis_planning"
)

// Results returned by capabilities whose credentials are missing.
const (
	DisabledWebSearch      = "Web search tool not available. Set SERP_API_KEY environment variable."
	DisabledMoleculePrice  = "Molecule price lookup not available. Set CHEMSPACE_API_KEY environment variable."
	DisabledPredict        = "Reaction prediction tool not available. Set RXN4CHEM_API_KEY environment variable or enable local_rxn."
	DisabledRetrosynthesis = "Retrosynthesis tool not available. Set RXN4CHEM_API_KEY environment variable or enable local_rxn."

	// DisabledRetrosynthesisLLM is used when the RXN key is present but the
	// route description has no OpenAI key.
	DisabledRetrosynthesisLLM = "Retrosynthesis tool not available. Set OPENAI_API_KEY environment variable or enable local_rxn."
)

// capability is one entry of the table: either a bound tool or the reason
// it is disabled.
type capability struct {
	name        string
	description string
	params      []param
	tool        chem.Tool
	reason      string
}

// CapabilityStatus describes a catalog entry for display.
type CapabilityStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Reason      string `json:"reason,omitempty"`
}

// Toolkit is the chemistry toolkit. It is immutable after New and safe for
// concurrent use.
type Toolkit struct {
	name   string
	mode   string
	opts   Options
	creds  Credentials
	client llm.Client
	caps   []capability
	index  map[string]int
	log    *logging.Logger
}

// Option customizes New.
type Option func(*settings)

type settings struct {
	client llm.Client
	log    *logging.Logger
}

// WithLLMClient supplies a prebuilt chat client instead of building one
// from the configuration.
func WithLLMClient(c llm.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(s *settings) { s.log = l }
}

// NewFromMap builds a toolkit from a bare configuration mapping.
func NewFromMap(m map[string]any, lib chem.Library, opts ...Option) (*Toolkit, error) {
	return New(config.ToolkitConfig{Name: "chemistry", Config: m}, lib, opts...)
}

// New resolves configuration and credentials and builds the capability
// table. When lib is nil the default library is used. It fails only when
// the LLM client cannot be built.
func New(cfg config.ToolkitConfig, lib chem.Library, opts ...Option) (*Toolkit, error) {
	s := settings{}
	for _, o := range opts {
		o(&s)
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	log := s.log.Sub("toolkit")

	options, warnings := ParseOptions(cfg.Config)
	for _, w := range warnings {
		log.Warn().Str("toolkit", cfg.Name).Msg(w)
	}

	creds, err := ResolveCredentials(options)
	if err != nil {
		return nil, err
	}

	client := s.client
	if client == nil {
		oc, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:      creds.OpenAIAPIKey,
			BaseURL:     creds.OpenAIAPIBase,
			Model:       options.LLMModel,
			Temperature: options.Temperature,
		})
		if err != nil {
			return nil, err
		}
		client = oc
	}

	if lib == nil {
		lib = chem.New(chem.Config{
			RXNURL:          options.RXN4ChemBaseURL,
			LocalPredictURL: options.LocalPredictURL,
			LocalRetroURL:   options.LocalRetroURL,
			Logger:          s.log,
		})
	}

	t := &Toolkit{
		name:   cfg.Name,
		mode:   cfg.Mode,
		opts:   options,
		creds:  creds,
		client: client,
		log:    log,
	}
	t.caps = buildCapabilities(lib, options, creds, client)
	t.index = make(map[string]int, len(t.caps))
	var disabled []string
	for i, c := range t.caps {
		t.index[c.name] = i
		log.Debug().Str("tool", c.name).Bool("enabled", c.tool != nil).Str("reason", c.reason).Msg("capability resolved")
		if c.tool == nil {
			disabled = append(disabled, c.name)
		}
	}
	log.Info().
		Str("toolkit", cfg.Name).
		Str("model", options.LLMModel).
		Bool("localRxn", options.LocalRXN).
		Int("enabled", len(t.caps)-len(disabled)).
		Strs("disabled", disabled).
		Msg("toolkit ready")
	return t, nil
}

// buildCapabilities is the single place where prerequisites are checked.
func buildCapabilities(lib chem.Library, o Options, c Credentials, client llm.Client) []capability {
	gated := func(ok bool, build func() chem.Tool, reason string) (chem.Tool, string) {
		if !ok {
			return nil, reason
		}
		return build(), ""
	}

	web, webReason := gated(c.SerpAPIKey != "", func() chem.Tool { return lib.WebSearch(c.SerpAPIKey) }, DisabledWebSearch)
	price, priceReason := gated(c.ChemSpaceAPIKey != "", func() chem.Tool { return lib.GetMoleculePrice(c.ChemSpaceAPIKey) }, DisabledMoleculePrice)

	var predict, retro chem.Tool
	predictReason, retroReason := DisabledPredict, DisabledRetrosynthesis
	switch {
	case o.LocalRXN:
		predict, predictReason = lib.RXNPredictLocal(), ""
		retro, retroReason = lib.RXNRetrosynthesisLocal(), ""
	case c.RXN4ChemAPIKey != "":
		predict, predictReason = lib.RXNPredict(c.RXN4ChemAPIKey), ""
		if c.OpenAIAPIKey != "" {
			retro, retroReason = lib.RXNRetrosynthesis(c.RXN4ChemAPIKey, c.OpenAIAPIKey, client), ""
		} else {
			retroReason = DisabledRetrosynthesisLLM
		}
	}

	return []capability{
		{name: ToolQueryMoleculeCAS, description: "Look up the CAS number of a molecule given by name, SMILES or CAS.",
			params: inputParam("Molecule name, SMILES or CAS number"), tool: lib.Query2CAS()},
		{name: ToolConvertNameToSMILES, description: "Convert a molecule name to SMILES.",
			params: inputParam("Molecule name"), tool: lib.Query2SMILES(c.ChemSpaceAPIKey)},
		{name: ToolConvertSMILESToName, description: "Convert a SMILES string to the molecule's name.",
			params: inputParam("SMILES string"), tool: lib.SMILES2Name()},
		{name: ToolGetMolecularWeight, description: "Compute the molecular weight of a molecule in g/mol.",
			params: inputParam("SMILES string"), tool: lib.SMILES2Weight()},
		{name: ToolGetFunctionalGroups, description: "List the functional groups of a molecule.",
			params: inputParam("SMILES string"), tool: lib.FuncGroups()},
		{name: ToolCheckMoleculeSimilarity, description: "Compute the Tanimoto similarity of two molecules.",
			params: similarityParams, tool: lib.MolSimilarity()},
		{name: ToolCheckPatent, description: "Check whether molecules are patented.",
			params: inputParam("SMILES string; separate several molecules with '.'"), tool: lib.PatentCheck()},
		{name: ToolCheckExplosive, description: "Check whether a molecule is explosive from its GHS classification.",
			params: inputParam("CAS number"), tool: lib.ExplosiveCheck()},
		{name: ToolCheckControlledChemical, description: "Check whether a molecule is a controlled chemical.",
			params: inputParam("CAS number or SMILES string"), tool: lib.ControlChemCheck()},
		{name: ToolCheckSimilarControlledChemicals, description: "Check whether a molecule is similar to a controlled chemical.",
			params: inputParam("SMILES string"), tool: lib.SimilarControlChemCheck()},
		{name: ToolGetSafetySummary, description: "Summarize operator, GHS, environmental and societal safety information for a molecule.",
			params: inputParam("Molecule name, SMILES or CAS number"), tool: lib.SafetySummary(client)},
		{name: ToolSearchScholarlyLiterature, description: "Answer a chemistry question from the scientific literature.",
			params: inputParam("Question or search query"), tool: lib.Scholar2ResultLLM(client, c.OpenAIAPIKey, c.SemanticScholarAPIKey)},
		{name: ToolWebSearchChemical, description: "Search the web for general chemistry information.",
			params: inputParam("Search query"), tool: web, reason: webReason},
		{name: ToolGetMoleculePrice, description: "Find the cheapest commercial offer for a molecule.",
			params: inputParam("SMILES string or molecule name"), tool: price, reason: priceReason},
		{name: ToolPredictReaction, description: "Predict the product of a chemical reaction.",
			params: inputParam("Reactant SMILES joined with '.'"), tool: predict, reason: predictReason},
		{name: ToolRetrosynthesisPlanning, description: "Plan a synthesis route for a target molecule.",
			params: inputParam("Target SMILES string"), tool: retro, reason: retroReason},
	}
}

// call is the one dispatch path for every capability.
func (t *Toolkit) call(ctx context.Context, name, input string) (string, error) {
	c := t.caps[t.index[name]]
	if c.tool == nil {
		t.log.Debug().Str("tool", name).Bool("disabled", true).Msg("tool call")
		return c.reason, nil
	}

	start := time.Now()
	out, err := c.tool.Run(ctx, input)
	ev := t.log.Debug().Str("tool", name).Bool("disabled", false).Dur("duration", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("tool call failed")
		return "", err
	}
	ev.Msg("tool call")
	return stringify(out), nil
}

// Name returns the configured toolkit name.
func (t *Toolkit) Name() string { return t.name }

// Mode returns the configured toolkit mode.
func (t *Toolkit) Mode() string { return t.mode }

// Options returns the parsed configuration.
func (t *Toolkit) Options() Options { return t.opts }

// LLMClient returns the chat client the toolkit's tools use.
func (t *Toolkit) LLMClient() llm.Client { return t.client }

// Credentials returns a copy of the resolved credentials. Use Masked for
// display.
func (t *Toolkit) Credentials() Credentials { return t.creds }

// Capabilities lists every catalog entry in catalog order.
func (t *Toolkit) Capabilities() []CapabilityStatus {
	out := make([]CapabilityStatus, len(t.caps))
	for i, c := range t.caps {
		out[i] = CapabilityStatus{
			Name:        c.name,
			Description: c.description,
			Enabled:     c.tool != nil,
			Reason:      c.reason,
		}
	}
	return out
}

func (t *Toolkit) QueryMoleculeCAS(ctx context.Context, query string) (string, error) {
	return t.call(ctx, ToolQueryMoleculeCAS, query)
}

func (t *Toolkit) ConvertNameToSMILES(ctx context.Context, name string) (string, error) {
	return t.call(ctx, ToolConvertNameToSMILES, name)
}

func (t *Toolkit) ConvertSMILESToName(ctx context.Context, smiles string) (string, error) {
	return t.call(ctx, ToolConvertSMILESToName, smiles)
}

func (t *Toolkit) GetMolecularWeight(ctx context.Context, smiles string) (string, error) {
	return t.call(ctx, ToolGetMolecularWeight, smiles)
}

func (t *Toolkit) GetFunctionalGroups(ctx context.Context, smiles string) (string, error) {
	return t.call(ctx, ToolGetFunctionalGroups, smiles)
}

// CheckMoleculeSimilarity compares two molecules; the library receives
// them space-joined.
func (t *Toolkit) CheckMoleculeSimilarity(ctx context.Context, smiles1, smiles2 string) (string, error) {
	return t.call(ctx, ToolCheckMoleculeSimilarity, smiles1+" "+smiles2)
}

func (t *Toolkit) CheckPatent(ctx context.Context, smiles string) (string, error) {
	return t.call(ctx, ToolCheckPatent, smiles)
}

func (t *Toolkit) CheckExplosive(ctx context.Context, cas string) (string, error) {
	return t.call(ctx, ToolCheckExplosive, cas)
}

func (t *Toolkit) CheckControlledChemical(ctx context.Context, query string) (string, error) {
	return t.call(ctx, ToolCheckControlledChemical, query)
}

func (t *Toolkit) CheckSimilarControlledChemicals(ctx context.Context, smiles string) (string, error) {
	return t.call(ctx, ToolCheckSimilarControlledChemicals, smiles)
}

func (t *Toolkit) GetSafetySummary(ctx context.Context, query string) (string, error) {
	return t.call(ctx, ToolGetSafetySummary, query)
}

func (t *Toolkit) SearchScholarlyLiterature(ctx context.Context, query string) (string, error) {
	return t.call(ctx, ToolSearchScholarlyLiterature, query)
}

func (t *Toolkit) WebSearchChemical(ctx context.Context, query string) (string, error) {
	return t.call(ctx, ToolWebSearchChemical, query)
}

func (t *Toolkit) GetMoleculePrice(ctx context.Context, query string) (string, error) {
	return t.call(ctx, ToolGetMoleculePrice, query)
}

func (t *Toolkit) PredictReaction(ctx context.Context, reactants string) (string, error) {
	return t.call(ctx, ToolPredictReaction, reactants)
}

func (t *Toolkit) RetrosynthesisPlanning(ctx context.Context, target string) (string, error) {
	return t.call(ctx, ToolRetrosynthesisPlanning, target)
}
