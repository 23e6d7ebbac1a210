// Package scholar searches the Semantic Scholar Graph API for papers.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/soyeahso/chemkit/internal/chem/webapi"
)

const DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

const paperFields = "title,abstract,year,authors,url,citationCount,venue"

// Author is a paper author.
type Author struct {
	Name string `json:"name"`
}

// Paper is one search hit.
type Paper struct {
	PaperID       string   `json:"paperId"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	Year          int      `json:"year"`
	Venue         string   `json:"venue"`
	URL           string   `json:"url"`
	CitationCount int      `json:"citationCount"`
	Authors       []Author `json:"authors"`
}

type searchResponse struct {
	Total int     `json:"total"`
	Data  []Paper `json:"data"`
}

// Client is a Semantic Scholar client. The API key is optional.
type Client struct {
	api *webapi.Client
}

// New creates a client. An empty baseURL selects the public service.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	api := webapi.New("semanticscholar", baseURL)
	if apiKey != "" {
		api.Header.Set("x-api-key", apiKey)
	}
	return &Client{api: api}
}

// Search returns up to limit papers matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	q := url.Values{
		"query":  []string{query},
		"limit":  []string{strconv.Itoa(limit)},
		"fields": []string{paperFields},
	}
	data, err := c.api.Get(ctx, "/paper/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode semanticscholar response: %w", err)
	}
	return resp.Data, nil
}

// Format renders papers as a numbered plain-text list for an LLM prompt.
func Format(papers []Paper) string {
	var b strings.Builder
	for i, p := range papers {
		names := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			names = append(names, a.Name)
		}
		fmt.Fprintf(&b, "[%d] %s (%d)", i+1, p.Title, p.Year)
		if len(names) > 0 {
			fmt.Fprintf(&b, " by %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
		if p.Abstract != "" {
			fmt.Fprintf(&b, "Abstract: %s\n", p.Abstract)
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "URL: %s\n", p.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
