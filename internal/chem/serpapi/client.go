// Package serpapi runs Google searches through SerpAPI.
package serpapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/chemkit/internal/chem/webapi"
)

const DefaultBaseURL = "https://serpapi.com"

// NoResult is returned as text when a search has nothing usable.
const NoResult = "No good search result found"

// Client is a SerpAPI client.
type Client struct {
	api    *webapi.Client
	apiKey string
	// Limit caps how many organic snippets Search joins.
	Limit int
}

// New creates a client. An empty baseURL selects the public service.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{api: webapi.New("serpapi", baseURL), apiKey: apiKey, Limit: 5}
}

// Search returns a plain-text digest of the top results: the answer box
// when present, otherwise the organic result snippets.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	q := url.Values{
		"engine":  []string{"google"},
		"q":       []string{query},
		"api_key": []string{c.apiKey},
	}
	data, err := c.api.Get(ctx, "/search.json?"+q.Encode())
	if err != nil {
		return "", err
	}

	res := gjson.ParseBytes(data)
	if msg := res.Get("error").String(); msg != "" {
		return "", fmt.Errorf("serpapi: %s", msg)
	}

	if ans := res.Get("answer_box.answer").String(); ans != "" {
		return ans, nil
	}
	if snip := res.Get("answer_box.snippet").String(); snip != "" {
		return snip, nil
	}

	var snippets []string
	for _, r := range res.Get("organic_results").Array() {
		if s := strings.TrimSpace(r.Get("snippet").String()); s != "" {
			snippets = append(snippets, s)
		}
		if len(snippets) == c.Limit {
			break
		}
	}
	if len(snippets) == 0 {
		return NoResult, nil
	}
	return strings.Join(snippets, "\n"), nil
}
