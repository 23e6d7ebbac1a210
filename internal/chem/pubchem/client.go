// Package pubchem is a small client for the PubChem PUG REST and PUG View
// services.
package pubchem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/chemkit/internal/chem/smiles"
	"github.com/soyeahso/chemkit/internal/chem/webapi"
)

const (
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest"
	// RequestsPerSecond is PubChem's documented per-user limit.
	RequestsPerSecond = 5
)

// ErrNotFound is returned when PubChem has no record for the query.
var ErrNotFound = errors.New("pubchem: no record found")

var casPattern = regexp.MustCompile(`^\d{2,7}-\d{2}-\d$`)

// IsCAS reports whether s looks like a CAS registry number.
func IsCAS(s string) bool { return casPattern.MatchString(strings.TrimSpace(s)) }

// Client talks to PubChem.
type Client struct {
	api *webapi.Client
}

// New returns a rate-limited client. An empty baseURL selects the public
// service.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{api: webapi.New("pubchem", baseURL).WithRateLimit(RequestsPerSecond, RequestsPerSecond)}
}

func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	data, err := c.api.Get(ctx, path)
	if err != nil {
		if webapi.StatusCode(err) == http.StatusNotFound {
			return gjson.Result{}, ErrNotFound
		}
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("pubchem: invalid JSON response")
	}
	return gjson.ParseBytes(data), nil
}

// Namespace selects how a compound query is interpreted.
type Namespace string

const (
	ByName   Namespace = "name"
	BySMILES Namespace = "smiles"
)

// DetectNamespace treats valid SMILES as SMILES and everything else,
// including CAS numbers, as a name.
func DetectNamespace(query string) Namespace {
	if !IsCAS(query) && smiles.Valid(query) {
		return BySMILES
	}
	return ByName
}

// CID returns the first compound ID matching the query.
func (c *Client) CID(ctx context.Context, ns Namespace, query string) (int64, error) {
	query = strings.TrimSpace(query)
	res, err := c.get(ctx, fmt.Sprintf("/pug/compound/%s/%s/cids/JSON", ns, url.PathEscape(query)))
	if err != nil {
		return 0, err
	}
	cid := res.Get("IdentifierList.CID.0").Int()
	if cid == 0 {
		return 0, ErrNotFound
	}
	return cid, nil
}

// ResolveCID looks up a query of unknown kind.
func (c *Client) ResolveCID(ctx context.Context, query string) (int64, error) {
	return c.CID(ctx, DetectNamespace(query), query)
}

// Properties holds the computed descriptors used by the tools.
type Properties struct {
	CID             int64
	IUPACName       string
	CanonicalSMILES string
	IsomericSMILES  string
	MolecularWeight float64
	Formula         string
}

// Properties fetches descriptors for a compound ID.
func (c *Client) Properties(ctx context.Context, cid int64) (*Properties, error) {
	res, err := c.get(ctx, fmt.Sprintf(
		"/pug/compound/cid/%d/property/IUPACName,CanonicalSMILES,IsomericSMILES,MolecularWeight,MolecularFormula/JSON", cid))
	if err != nil {
		return nil, err
	}
	p := res.Get("PropertyTable.Properties.0")
	if !p.Exists() {
		return nil, ErrNotFound
	}
	return &Properties{
		CID:             p.Get("CID").Int(),
		IUPACName:       p.Get("IUPACName").String(),
		CanonicalSMILES: firstString(p, "CanonicalSMILES", "ConnectivitySMILES", "SMILES"),
		IsomericSMILES:  firstString(p, "IsomericSMILES", "SMILES"),
		MolecularWeight: p.Get("MolecularWeight").Float(),
		Formula:         p.Get("MolecularFormula").String(),
	}, nil
}

// PubChem has renamed SMILES properties over time; accept either spelling.
func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k).String(); v != "" {
			return v
		}
	}
	return ""
}

// Synonyms lists the recorded synonyms of a compound.
func (c *Client) Synonyms(ctx context.Context, cid int64) ([]string, error) {
	res, err := c.get(ctx, fmt.Sprintf("/pug/compound/cid/%d/synonyms/JSON", cid))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range res.Get("InformationList.Information.0.Synonym").Array() {
		out = append(out, s.String())
	}
	return out, nil
}

// CAS returns the first synonym shaped like a CAS number.
func (c *Client) CAS(ctx context.Context, cid int64) (string, error) {
	syns, err := c.Synonyms(ctx, cid)
	if err != nil {
		return "", err
	}
	for _, s := range syns {
		if IsCAS(s) {
			return s, nil
		}
	}
	return "", ErrNotFound
}

// PatentCount returns how many patent cross-references PubChem lists for a
// SMILES string. Unknown molecules have zero.
func (c *Client) PatentCount(ctx context.Context, smi string) (int, error) {
	res, err := c.get(ctx, fmt.Sprintf("/pug/compound/smiles/%s/xrefs/PatentID/JSON", url.PathEscape(smi)))
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(res.Get("InformationList.Information.0.PatentID").Array()), nil
}

// Section fetches one PUG View heading for a compound and returns all of its
// text markup strings, in document order.
func (c *Client) Section(ctx context.Context, cid int64, heading string) ([]string, error) {
	res, err := c.get(ctx, fmt.Sprintf("/pug_view/data/compound/%d/JSON?heading=%s", cid, url.QueryEscape(heading)))
	if err != nil {
		return nil, err
	}
	var out []string
	collectStrings(res.Get("Record"), &out)
	return out, nil
}

// GHSClassification returns the GHS classification text of a compound.
func (c *Client) GHSClassification(ctx context.Context, cid int64) (string, error) {
	parts, err := c.Section(ctx, cid, "GHS Classification")
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

// SafetyHeadings are the PUG View sections combined by SafetyText.
var SafetyHeadings = []string{
	"Hazards Identification",
	"First Aid Measures",
	"Handling and Storage",
	"Exposure Control and Personal Protection",
	"Stability and Reactivity",
	"Toxicity Summary",
}

// SafetyText concatenates the safety-related sections of a compound,
// truncated to maxChars when positive. Missing sections are skipped.
func (c *Client) SafetyText(ctx context.Context, cid int64, maxChars int) (string, error) {
	var b strings.Builder
	for _, h := range SafetyHeadings {
		parts, err := c.Section(ctx, cid, h)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", h, strings.Join(parts, "\n"))
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrNotFound
	}
	if maxChars > 0 {
		text = webapi.Truncate(text, maxChars)
	}
	return text, nil
}

// collectStrings walks a PUG View record and gathers every
// StringWithMarkup entry.
func collectStrings(r gjson.Result, out *[]string) {
	switch {
	case r.IsArray():
		for _, v := range r.Array() {
			collectStrings(v, out)
		}
	case r.IsObject():
		r.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "StringWithMarkup" {
				for _, s := range value.Array() {
					if txt := s.Get("String").String(); txt != "" {
						*out = append(*out, txt)
					}
				}
				return true
			}
			collectStrings(value, out)
			return true
		})
	}
}
