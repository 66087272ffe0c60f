// Package renderclient implements core.Renderer against an external
// typesetting service (RENDER_URL): the document-tree-to-file, chart, and
// preview-truncation operations spec.md §1 names as explicitly out of core
// scope. Grounded on engine/llmtask's HTTPClient — same
// bytes.Reader request / json.Decoder response shape — since no
// chart-rendering or PDF-manipulation library appears anywhere in the
// retrieval pack (see DESIGN.md's Open Question resolution 4).
package renderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/finalyze/core/engine/core"
)

// Client implements core.Renderer against baseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client against baseURL (RENDER_URL).
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

type renderRequest struct {
	Document core.Document `json:"document"`
}

type renderResponse struct {
	Path string `json:"path"`
}

// Render implements core.Renderer: posts the abstract document tree and
// returns the path the typesetting collaborator wrote the finished report
// to (under PERSISTANCE_DIR, per spec.md's blob-persistence note).
func (c *Client) Render(ctx context.Context, doc core.Document) (string, error) {
	var out renderResponse
	if err := c.postJSON(ctx, "/render", renderRequest{Document: doc}, &out); err != nil {
		return "", fmt.Errorf("renderclient: render: %w", err)
	}
	return out.Path, nil
}

type previewRequest struct {
	ReportPath string `json:"report_path"`
	MaxPages   int    `json:"max_pages"`
}

type previewResponse struct {
	Path string `json:"path"`
}

// Preview implements core.Renderer: truncates the rendered report to the
// first maxPages pages and returns the new file's path.
func (c *Client) Preview(ctx context.Context, reportPath string, maxPages int) (string, error) {
	var out previewResponse
	if err := c.postJSON(ctx, "/preview", previewRequest{ReportPath: reportPath, MaxPages: maxPages}, &out); err != nil {
		return "", fmt.Errorf("renderclient: preview: %w", err)
	}
	return out.Path, nil
}

type chartRequest struct {
	VisualType core.VisualType `json:"visual_type"`
	Data       map[string]any  `json:"data"`
}

type chartResponse struct {
	Path string `json:"path"`
}

// Chart implements core.Renderer: renders one visual's type-specific data
// record into an image and returns its path.
func (c *Client) Chart(ctx context.Context, visualType core.VisualType, data map[string]any) (string, error) {
	var out chartResponse
	if err := c.postJSON(ctx, "/chart", chartRequest{VisualType: visualType, Data: data}, &out); err != nil {
		return "", fmt.Errorf("renderclient: chart: %w", err)
	}
	return out.Path, nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ core.Renderer = (*Client)(nil)
