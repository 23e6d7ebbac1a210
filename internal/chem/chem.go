// Package chem is the chemistry tool library. Each constructor on Library
// returns a Tool bound to the credentials it needs; Default wires the
// constructors to PubChem, ChemSpace, SerpAPI, Semantic Scholar, IBM RXN
// and the local SMILES toolkit.
package chem

import (
	"context"

	"github.com/soyeahso/chemkit/internal/chem/chemspace"
	"github.com/soyeahso/chemkit/internal/chem/controlled"
	"github.com/soyeahso/chemkit/internal/chem/pubchem"
	"github.com/soyeahso/chemkit/internal/chem/rxn"
	"github.com/soyeahso/chemkit/internal/chem/scholar"
	"github.com/soyeahso/chemkit/internal/chem/serpapi"
	"github.com/soyeahso/chemkit/internal/chem/webapi"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/logging"
)

// Tool is one invocable chemistry capability. Results are usually strings;
// some tools return numbers or maps.
type Tool interface {
	Run(ctx context.Context, input string) (any, error)
}

// ToolFunc adapts a function to Tool.
type ToolFunc func(ctx context.Context, input string) (any, error)

// Run calls f.
func (f ToolFunc) Run(ctx context.Context, input string) (any, error) { return f(ctx, input) }

// APIError is returned by the service clients on non-2xx responses.
type APIError = webapi.APIError

// Library constructs tools. Constructors never perform I/O.
type Library interface {
	Query2CAS() Tool
	Query2SMILES(chemspaceKey string) Tool
	SMILES2Name() Tool
	MolSimilarity() Tool
	SMILES2Weight() Tool
	FuncGroups() Tool
	PatentCheck() Tool
	ExplosiveCheck() Tool
	ControlChemCheck() Tool
	SimilarControlChemCheck() Tool
	SafetySummary(client llm.Client) Tool
	Scholar2ResultLLM(client llm.Client, openaiKey, s2Key string) Tool
	GetMoleculePrice(chemspaceKey string) Tool
	WebSearch(serpKey string) Tool
	RXNPredict(rxnKey string) Tool
	RXNRetrosynthesis(rxnKey, openaiKey string, client llm.Client) Tool
	RXNPredictLocal() Tool
	RXNRetrosynthesisLocal() Tool
}

// Config points Default at its services. Empty URLs select the public
// endpoints.
type Config struct {
	PubChemURL      string
	ChemSpaceURL    string
	SerpAPIURL      string
	ScholarURL      string
	RXNURL          string
	LocalPredictURL string
	LocalRetroURL   string

	// SafetyMaxChars caps the PubChem text handed to the LLM.
	SafetyMaxChars int
	// ScholarLimit is the number of papers fetched per question.
	ScholarLimit int

	Logger *logging.Logger
}

func (c *Config) applyDefaults() {
	if c.LocalPredictURL == "" {
		c.LocalPredictURL = rxn.DefaultLocalPredictURL
	}
	if c.LocalRetroURL == "" {
		c.LocalRetroURL = rxn.DefaultLocalRetroURL
	}
	if c.SafetyMaxChars == 0 {
		c.SafetyMaxChars = 8000
	}
	if c.ScholarLimit == 0 {
		c.ScholarLimit = 8
	}
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
}

// Default is the production Library.
type Default struct {
	cfg     Config
	pubchem *pubchem.Client
	log     *logging.Logger
}

var _ Library = (*Default)(nil)

// New builds the default library.
func New(cfg Config) *Default {
	cfg.applyDefaults()
	return &Default{cfg: cfg, pubchem: pubchem.New(cfg.PubChemURL), log: cfg.Logger.Sub("chem")}
}

func (d *Default) controlledList() (*controlled.List, error) {
	return controlled.Default()
}

func (d *Default) chemspaceClient(key string) *chemspace.Client {
	return chemspace.New(key, d.cfg.ChemSpaceURL)
}

func (d *Default) serpClient(key string) *serpapi.Client {
	return serpapi.New(key, d.cfg.SerpAPIURL)
}

func (d *Default) scholarClient(key string) *scholar.Client {
	return scholar.New(key, d.cfg.ScholarURL)
}

func (d *Default) rxnClient(key string) *rxn.Client {
	return rxn.New(key, d.cfg.RXNURL)
}
