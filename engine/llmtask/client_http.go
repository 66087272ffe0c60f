package llmtask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/finalyze/core/engine/core"
)

// HTTPClient implements core.LLMClient against the LLM_URL endpoint:
// generate(prompt, model, optional_schema) and embed(text), both plain JSON
// over HTTP. Grounded on pkg/ollama.EmbedClient — same
// bytes.Reader request / json.Decoder response shape — generalized to also
// cover the generate operation and to carry token/caching accounting through
// to core.GenerationResult.
type HTTPClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPClient creates a client against baseURL (LLM_URL) using model for
// every generate call.
func NewHTTPClient(baseURL, model string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, model: model, client: &http.Client{}}
}

type generateRequest struct {
	Prompt string          `json:"prompt"`
	Model  string          `json:"model"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

type generateResponse struct {
	Generated       string `json:"generated"`
	PromptTokens    int    `json:"prompt_tokens"`
	GeneratedTokens int    `json:"generated_tokens"`
	Caching         struct {
		ReadTokens  int `json:"read_tokens"`
		WriteTokens int `json:"write_tokens"`
	} `json:"caching"`
	DurationUs int64 `json:"duration_us"`
}

// Generate implements core.LLMClient.
func (c *HTTPClient) Generate(ctx context.Context, prompt string, schema []byte) (string, core.GenerationResult, error) {
	reqBody, err := json.Marshal(generateRequest{Prompt: prompt, Model: c.model, Schema: schema})
	if err != nil {
		return "", core.GenerationResult{}, fmt.Errorf("llmtask: marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", core.GenerationResult{}, fmt.Errorf("llmtask: build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", core.GenerationResult{}, fmt.Errorf("llmtask: generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", core.GenerationResult{}, fmt.Errorf("llmtask: generate: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", core.GenerationResult{}, fmt.Errorf("llmtask: decode generate response: %w", err)
	}

	dur := time.Duration(out.DurationUs) * time.Microsecond
	if out.DurationUs == 0 {
		dur = time.Since(start)
	}

	return out.Generated, core.GenerationResult{
		PromptTokens:     out.PromptTokens,
		GeneratedTokens:  out.GeneratedTokens,
		CacheReadTokens:  out.Caching.ReadTokens,
		CacheWriteTokens: out.Caching.WriteTokens,
		Duration:         dur,
	}, nil
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float64 `json:"vector"`
}

// Embed implements core.LLMClient.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("llmtask: marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("llmtask: build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmtask: embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llmtask: embed: status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("llmtask: decode embed response: %w", err)
	}

	vec := make([]float32, len(out.Vector))
	for i, v := range out.Vector {
		vec[i] = float32(v)
	}
	return vec, nil
}
