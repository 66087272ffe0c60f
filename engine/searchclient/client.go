// Package searchclient implements the Search Client (C4): a GET-based
// wrapper around an external search engine endpoint (SEARCH_URL),
// guarded by pkg/resilience's circuit breaker and rate limiter so a flaky or
// throttled search backend degrades the RunSearch stage instead of the
// whole scheduler.
package searchclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
	"github.com/finalyze/core/pkg/resilience"
)

// Client implements core.SearchProvider against SEARCH_URL.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *resilience.Breaker
	limiter *resilience.Limiter
}

// New creates a Client wrapped in a circuit breaker and token-bucket rate
// limiter, grounded on the same resilience.Breaker/Limiter pairing the
// teacher applies to its own HTTP-backed scrapers.
func New(baseURL string, breaker *resilience.Breaker, limiter *resilience.Limiter) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		breaker: breaker,
		limiter: limiter,
	}
}

type searchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// Search implements core.SearchProvider: GETs {baseURL}/search?q=...&limit=...
// through the rate limiter and circuit breaker, returning up to limit URLs
// in the order the endpoint returned them.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	result := resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[[]string] {
		if err := c.limiter.Wait(ctx); err != nil {
			return fn.Err[[]string](err)
		}
		urls, err := c.doSearch(ctx, query, limit)
		if err != nil {
			return fn.Err[[]string](err)
		}
		return fn.Ok(urls)
	})
	return result.Unwrap()
}

func (c *Client) doSearch(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("searchclient: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", core.ErrUpstream, query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search %q: status %d", core.ErrUpstream, query, resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("searchclient: decode response: %w", err)
	}

	urls := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		urls = append(urls, r.URL)
		if len(urls) >= limit {
			break
		}
	}
	return urls, nil
}
