package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	probePath    = "/ping"
	listingsPath = "/public/api/v1/getCards"

	probeTimeout   = 15 * time.Second
	listingTimeout = 20 * time.Second

	maxProbeBody = 4 << 10
)

// Client is a stateless adapter over the marketplace content API. It takes
// the API key per call and never returns a transport failure as an error:
// the probe degrades to a diagnostic result and the listing fetch falls
// back to a fixed demo set.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs the marketplace client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  logger,
	}
}

// Probe issues an authenticated ping and reports the raw upstream answer.
// A missing key or a network failure is a result, not an error.
func (c *Client) Probe(ctx context.Context, apiKey string) ProbeResult {
	if apiKey == "" {
		return ProbeResult{Outcome: OutcomeMissingCredential}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+probePath, nil)
	if err != nil {
		return ProbeResult{Outcome: OutcomeDegraded, Error: err.Error()}
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return ProbeResult{Outcome: OutcomeDegraded, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	res := ProbeResult{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
	if resp.StatusCode == http.StatusOK {
		res.Outcome = OutcomeOK
	} else {
		res.Outcome = OutcomeDegraded
		res.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return res
}

type cardsResponse struct {
	Cards []struct {
		NMID  int64  `json:"nmID"`
		Code  string `json:"vendorCode"`
		Title string `json:"title"`
		Brand string `json:"brand"`
	} `json:"cards"`
}

// FetchListings requests catalog cards. On any failure (transport, non-200,
// parse) it returns the fixed demo set with the fallback outcome so the
// caller's page always has something to render.
func (c *Client) FetchListings(ctx context.Context, apiKey string, limit int) ListingResult {
	if apiKey == "" {
		return ListingResult{Outcome: OutcomeMissingCredential, Listings: []Listing{}}
	}
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, listingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listingsPath, nil)
	if err != nil {
		return c.fallback(limit, err)
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fallback(limit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fallback(limit, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload cardsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return c.fallback(limit, err)
	}

	listings := make([]Listing, 0, len(payload.Cards))
	for _, card := range payload.Cards {
		if len(listings) == limit {
			break
		}
		code := card.Code
		if code == "" {
			code = fmt.Sprintf("%d", card.NMID)
		}
		listings = append(listings, Listing{Code: code, Name: card.Title, Brand: card.Brand})
	}
	return ListingResult{Outcome: OutcomeOK, Listings: listings}
}

func (c *Client) fallback(limit int, cause error) ListingResult {
	if c.logger != nil {
		c.logger.Warn("marketplace listing fetch failed, serving demo set", slog.Any("error", cause))
	}
	demo := demoListings()
	if limit < len(demo) {
		demo = demo[:limit]
	}
	return ListingResult{Outcome: OutcomeFallback, Listings: demo}
}

func demoListings() []Listing {
	return []Listing{
		{Code: "DEMO-001", Name: "Linen tote bag", Brand: "Atelier"},
		{Code: "DEMO-002", Name: "Canvas apron", Brand: "Atelier"},
		{Code: "DEMO-003", Name: "Cotton pouch set", Brand: "Atelier"},
		{Code: "DEMO-004", Name: "Wool scarf", Brand: "Atelier"},
		{Code: "DEMO-005", Name: "Leather key fob", Brand: "Atelier"},
	}
}
