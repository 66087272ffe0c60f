// Package browserpool implements the Browser Pool (C3): a fixed-size pool
// of headless-browser sessions used by ScrapePages to render
// JavaScript-heavy pages before extraction. Grounded on the HTTP-client
// idiom in engine/scraper/youtube.go (http.Client-plus-JSON pattern)
// generalized to the W3C WebDriver wire protocol, since nothing else
// available talks to a browser directly.
package browserpool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/finalyze/core/engine/core"
)

// webdriverHandle is a single W3C WebDriver session reachable over HTTP,
// implementing core.BrowserHandle.
type webdriverHandle struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

type newSessionRequest struct {
	Capabilities struct {
		AlwaysMatch map[string]any `json:"alwaysMatch"`
	} `json:"capabilities"`
}

type newSessionResponse struct {
	Value struct {
		SessionID string `json:"sessionId"`
	} `json:"value"`
}

// dialSession opens a new WebDriver session against addr (a WebDriver
// server's host:port, e.g. a Selenium/chromedriver endpoint).
func dialSession(ctx context.Context, client *http.Client, addr string) (*webdriverHandle, error) {
	baseURL := "http://" + addr
	req := newSessionRequest{}
	req.Capabilities.AlwaysMatch = map[string]any{
		"browserName": "chrome",
		"goog:chromeOptions": map[string]any{
			"args": []string{"--headless=new", "--disable-gpu", "--no-sandbox"},
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("browserpool: marshal new session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("browserpool: build new session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: new session: %v", core.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: new session: status %d", core.ErrUpstream, resp.StatusCode)
	}

	var out newSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("browserpool: decode new session response: %w", err)
	}
	return &webdriverHandle{baseURL: baseURL, sessionID: out.Value.SessionID, client: client}, nil
}

type navigateRequest struct {
	URL string `json:"url"`
}

// Navigate implements core.BrowserHandle: loads url, then returns the
// rendered page source via the WebDriver GET /source endpoint.
func (h *webdriverHandle) Navigate(ctx context.Context, url string) (string, error) {
	body, _ := json.Marshal(navigateRequest{URL: url})
	navReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.sessionURL("/url"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("browserpool: build navigate request: %w", err)
	}
	navReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(navReq)
	if err != nil {
		return "", fmt.Errorf("%w: navigate %s: %v", core.ErrUpstream, url, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: navigate %s: status %d", core.ErrUpstream, url, resp.StatusCode)
	}

	srcReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.sessionURL("/source"), nil)
	if err != nil {
		return "", fmt.Errorf("browserpool: build source request: %w", err)
	}
	srcResp, err := h.client.Do(srcReq)
	if err != nil {
		return "", fmt.Errorf("%w: fetch source %s: %v", core.ErrUpstream, url, err)
	}
	defer srcResp.Body.Close()

	var out struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(srcResp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("browserpool: decode source response: %w", err)
	}
	return out.Value, nil
}

// Close implements core.BrowserHandle: tears down the WebDriver session.
func (h *webdriverHandle) Close() error {
	req, err := http.NewRequest(http.MethodDelete, h.sessionURL(""), nil)
	if err != nil {
		return fmt.Errorf("browserpool: build delete session request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("browserpool: delete session: %w", err)
	}
	return resp.Body.Close()
}

func (h *webdriverHandle) sessionURL(suffix string) string {
	return fmt.Sprintf("%s/session/%s%s", h.baseURL, h.sessionID, suffix)
}

// HTTPDialer implements core.BrowserDialer over the W3C WebDriver wire
// protocol.
type HTTPDialer struct {
	client *http.Client
}

// NewHTTPDialer creates a dialer using a plain http.Client; per-navigation
// deadlines are enforced by the caller's context, not a client-wide
// timeout, since Navigate and session teardown share one underlying client.
func NewHTTPDialer() *HTTPDialer {
	return &HTTPDialer{client: &http.Client{}}
}

// Dial implements core.BrowserDialer.
func (d *HTTPDialer) Dial(ctx context.Context, addr string) (core.BrowserHandle, error) {
	return dialSession(ctx, d.client, addr)
}
