// Package rxn talks to IBM RXN for Chemistry and to locally hosted
// reaction models.
package rxn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/chemkit/internal/chem/webapi"
)

const (
	DefaultBaseURL = "https://rxn.res.ibm.com"
	apiPrefix      = "/rxn/api/api/v1"

	DefaultPollInterval = 5 * time.Second
	DefaultMaxPolls     = 60

	projectName = "chemkit"
	aiModel     = "2020-08-10"
)

// ErrNoResult is returned when a finished job carries no usable answer.
var ErrNoResult = errors.New("rxn: no result")

// ErrJobFailed is returned when the service reports a failed job.
var ErrJobFailed = errors.New("rxn: job failed")

// Client is an IBM RXN for Chemistry client. Jobs are submitted into a
// single lazily created project.
type Client struct {
	api *webapi.Client

	PollInterval time.Duration
	MaxPolls     int

	mu        sync.Mutex
	projectID string
}

// New creates a client. An empty baseURL selects the public service.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	api := webapi.New("rxn4chemistry", strings.TrimRight(baseURL, "/")+apiPrefix)
	api.Header.Set("Authorization", apiKey)
	return &Client{api: api, PollInterval: DefaultPollInterval, MaxPolls: DefaultMaxPolls}
}

func (c *Client) project(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.projectID != "" {
		return c.projectID, nil
	}
	name := fmt.Sprintf("%s-%d", projectName, time.Now().Unix())
	data, err := c.api.Do(ctx, http.MethodPost, "/projects", map[string]any{"name": name, "invitations": []string{}})
	if err != nil {
		return "", fmt.Errorf("create rxn project: %w", err)
	}
	id := gjson.GetBytes(data, "payload.id").String()
	if id == "" {
		return "", fmt.Errorf("create rxn project: missing id")
	}
	c.projectID = id
	return id, nil
}

// poll fetches path until the job leaves the running states.
func (c *Client) poll(ctx context.Context, path string) (gjson.Result, error) {
	for i := 0; i < c.MaxPolls; i++ {
		data, err := c.api.Get(ctx, path)
		if err != nil {
			return gjson.Result{}, err
		}
		payload := gjson.GetBytes(data, "payload")
		switch strings.ToUpper(payload.Get("status").String()) {
		case "SUCCESS":
			return payload, nil
		case "FAILED", "ERROR":
			return gjson.Result{}, ErrJobFailed
		}

		timer := time.NewTimer(c.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return gjson.Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	return gjson.Result{}, fmt.Errorf("rxn: job still running after %d polls", c.MaxPolls)
}

// PredictProduct runs forward reaction prediction and returns the product
// SMILES of the top attempt.
func (c *Client) PredictProduct(ctx context.Context, reactants string) (string, error) {
	pid, err := c.project(ctx)
	if err != nil {
		return "", err
	}
	data, err := c.api.Do(ctx, http.MethodPost, "/predictions/pr", map[string]any{
		"projectId": pid,
		"reactants": reactants,
		"aiModel":   aiModel,
	})
	if err != nil {
		return "", err
	}
	jobID := gjson.GetBytes(data, "payload.id").String()
	if jobID == "" {
		return "", fmt.Errorf("rxn prediction: missing job id")
	}

	payload, err := c.poll(ctx, "/predictions/"+jobID)
	if err != nil {
		return "", err
	}
	rxnSmiles := payload.Get("attempts.0.smiles").String()
	if rxnSmiles == "" {
		return "", ErrNoResult
	}
	if i := strings.LastIndex(rxnSmiles, ">>"); i >= 0 {
		return rxnSmiles[i+2:], nil
	}
	return rxnSmiles, nil
}

// Route is one retrosynthetic pathway. Steps run from starting materials to
// the target.
type Route struct {
	Confidence float64
	Steps      []string // reaction SMILES, "reactants>>product"
}

func (r Route) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route confidence: %.2f\n", r.Confidence)
	for i, s := range r.Steps {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, s)
	}
	return strings.TrimSpace(b.String())
}

// Retrosynthesis plans synthesis routes for a product and returns them in
// the order the service ranks them.
func (c *Client) Retrosynthesis(ctx context.Context, product string) ([]Route, error) {
	pid, err := c.project(ctx)
	if err != nil {
		return nil, err
	}
	data, err := c.api.Do(ctx, http.MethodPost, "/retrosynthesis/rs", map[string]any{
		"projectId":   pid,
		"product":     product,
		"aiModel":     aiModel,
		"fap":         0.6,
		"maxSteps":    3,
		"nBeams":      10,
		"pruneRr":     10,
		"isAutomatic": true,
	})
	if err != nil {
		return nil, err
	}
	jobID := gjson.GetBytes(data, "payload.id").String()
	if jobID == "" {
		return nil, fmt.Errorf("rxn retrosynthesis: missing job id")
	}

	payload, err := c.poll(ctx, "/retrosynthesis/"+jobID)
	if err != nil {
		return nil, err
	}

	var routes []Route
	for _, seq := range payload.Get("sequences").Array() {
		r := Route{Confidence: seq.Get("confidence").Float()}
		collectSteps(seq.Get("tree"), &r.Steps)
		if len(r.Steps) > 0 {
			routes = append(routes, r)
		}
	}
	if len(routes) == 0 {
		return nil, ErrNoResult
	}
	return routes, nil
}

// collectSteps walks a retrosynthesis tree depth first so that precursors
// are made before the molecules that consume them.
func collectSteps(node gjson.Result, steps *[]string) {
	children := node.Get("children").Array()
	if len(children) == 0 {
		return
	}
	precursors := make([]string, 0, len(children))
	for _, ch := range children {
		collectSteps(ch, steps)
		precursors = append(precursors, ch.Get("smiles").String())
	}
	*steps = append(*steps, strings.Join(precursors, ".")+">>"+node.Get("smiles").String())
}
