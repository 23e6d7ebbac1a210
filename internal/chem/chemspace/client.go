// Package chemspace queries the ChemSpace catalogue for purchasable
// molecules and their prices.
package chemspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/soyeahso/chemkit/internal/chem/webapi"
)

const DefaultBaseURL = "https://api.chem-space.com"

// Categories searched for purchasable compounds.
const (
	CatalogCategories = "CSCS,CSMB,CSSB"
	lookupCategories  = "CSCS,CSMB"
)

// ErrNotFound is returned when a search has no hits.
var ErrNotFound = errors.New("chemspace: no results")

// Offer is one purchasable pack of a molecule.
type Offer struct {
	Vendor string
	Amount string
	Unit   string
	Price  decimal.Decimal // USD
}

func (o Offer) String() string {
	return fmt.Sprintf("%s%s of this molecule cost %s USD and can be purchased at %s.",
		o.Amount, o.Unit, o.Price.StringFixed(2), o.Vendor)
}

// Client is a ChemSpace API client. Access tokens are exchanged lazily and
// renewed once when the service rejects them.
type Client struct {
	api    *webapi.Client
	apiKey string

	mu    sync.Mutex
	token string
}

// New creates a client. An empty baseURL selects the public service.
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{api: webapi.New("chemspace", baseURL), apiKey: apiKey}
}

func (c *Client) accessToken(ctx context.Context, renew bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !renew {
		return c.token, nil
	}

	data, err := c.api.Send(ctx, http.MethodGet, "/auth/token", nil, "",
		http.Header{"Authorization": []string{"Bearer " + c.apiKey}})
	if err != nil {
		return "", fmt.Errorf("chemspace token: %w", err)
	}
	tok := gjson.GetBytes(data, "access_token").String()
	if tok == "" {
		return "", fmt.Errorf("chemspace token: empty access_token")
	}
	c.token = tok
	return tok, nil
}

// search runs a v3 search. kind is "exact", "sim" or "text".
func (c *Client) search(ctx context.Context, kind, query, categories string, count int) (gjson.Result, error) {
	path := fmt.Sprintf("/v3/search/%s?count=%d&page=1&categories=%s", kind, count, url.QueryEscape(categories))
	form := url.Values{"SMILES": []string{query}}.Encode()

	var data []byte
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := c.accessToken(ctx, attempt > 0)
		if err != nil {
			return gjson.Result{}, err
		}
		data, err = c.api.Send(ctx, http.MethodPost, path, strings.NewReader(form),
			"application/x-www-form-urlencoded",
			http.Header{
				"Authorization": []string{"Bearer " + tok},
				"Accept":        []string{"application/json; version=3.1"},
			})
		if webapi.StatusCode(err) == http.StatusUnauthorized && attempt == 0 {
			continue
		}
		if err != nil {
			return gjson.Result{}, err
		}
		break
	}

	res := gjson.ParseBytes(data)
	if res.Get("count").Int() == 0 || len(res.Get("items").Array()) == 0 {
		return gjson.Result{}, ErrNotFound
	}
	return res, nil
}

// SMILES converts a molecule name (or other identifier) to SMILES using the
// catalogue text search.
func (c *Client) SMILES(ctx context.Context, query string) (string, error) {
	res, err := c.search(ctx, "text", query, lookupCategories, 1)
	if err != nil {
		return "", err
	}
	smi := res.Get("items.0.smiles").String()
	if smi == "" {
		return "", ErrNotFound
	}
	return smi, nil
}

// Offers lists every priced pack for an exact SMILES match.
func (c *Client) Offers(ctx context.Context, smi string) ([]Offer, error) {
	res, err := c.search(ctx, "exact", smi, CatalogCategories, 1)
	if err != nil {
		return nil, err
	}

	var offers []Offer
	for _, item := range res.Get("items").Array() {
		for _, off := range item.Get("offers").Array() {
			vendor := off.Get("vendorName").String()
			for _, p := range off.Get("prices").Array() {
				raw := p.Get("priceUsd")
				if !raw.Exists() || raw.Type == gjson.Null {
					continue
				}
				price, err := decimal.NewFromString(strings.Trim(raw.Raw, `"`))
				if err != nil {
					continue
				}
				offers = append(offers, Offer{
					Vendor: vendor,
					Amount: p.Get("pack").String(),
					Unit:   p.Get("uom").String(),
					Price:  price,
				})
			}
		}
	}
	return offers, nil
}

// Cheapest returns the lowest-priced offer for a molecule.
func (c *Client) Cheapest(ctx context.Context, smi string) (Offer, error) {
	offers, err := c.Offers(ctx, smi)
	if err != nil {
		return Offer{}, err
	}
	if len(offers) == 0 {
		return Offer{}, ErrNotFound
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Price.LessThan(best.Price) {
			best = o
		}
	}
	return best, nil
}
