package stage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/finalyze/core/engine/core"
)

// fakeLLM is a scripted core.LLMClient. For stages that call Generate
// sequentially, Responses is consumed in order. For stages that fan calls
// out concurrently, RespondFn picks the response by inspecting the rendered
// prompt instead, since concurrent call order isn't deterministic.
type fakeLLM struct {
	Responses []string
	RespondFn func(prompt string) string
	Embedding []float32

	mu    sync.Mutex
	calls int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, schema []byte) (string, core.GenerationResult, error) {
	if f.RespondFn != nil {
		return f.RespondFn(prompt), core.GenerationResult{PromptTokens: 10, GeneratedTokens: 5}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.Responses) {
		return "", core.GenerationResult{}, fmt.Errorf("fakeLLM: no scripted response left for call %d", f.calls)
	}
	resp := f.Responses[f.calls]
	f.calls++
	return resp, core.GenerationResult{PromptTokens: 10, GeneratedTokens: 5}, nil
}

// containsResponse returns the response whose marker string appears in
// prompt, used by RespondFn implementations to key off a section/query
// name embedded by the prompt template.
func containsResponse(prompt string, byMarker map[string]string) string {
	for marker, resp := range byMarker {
		if strings.Contains(prompt, marker) {
			return resp
		}
	}
	return ""
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.Embedding != nil {
		return f.Embedding, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakePrompts serves a constant template for every key, since these tests
// exercise the stage's input-assembly and output-parsing logic, not the
// prompt author's actual wording.
type fakePrompts struct{ Template string }

func (f fakePrompts) Prompt(ctx context.Context, key string) (string, error) {
	if f.Template != "" {
		return f.Template, nil
	}
	return "prompt for {{.Title}}", nil
}

// fakeSearch returns URLs scripted per query.
type fakeSearch struct {
	ByQuery map[string][]string
}

func (f fakeSearch) Search(ctx context.Context, query string, limit int) ([]string, error) {
	urls := f.ByQuery[query]
	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}

// fakeVectors is an in-memory stand-in for the vector index.
type fakeVectors struct {
	Rows map[string][]core.ChunkEmbedding
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{Rows: make(map[string][]core.ChunkEmbedding)}
}

func (f *fakeVectors) Insert(ctx context.Context, reportID string, rows []core.ChunkEmbedding) error {
	f.Rows[reportID] = append(f.Rows[reportID], rows...)
	return nil
}

func (f *fakeVectors) Search(ctx context.Context, reportID string, query []float32, topK int) ([]core.ChunkEmbedding, error) {
	rows := f.Rows[reportID]
	if len(rows) > topK {
		rows = rows[:topK]
	}
	return rows, nil
}

// fakeRenderer stands in for the external typesetting collaborator.
type fakeRenderer struct {
	ChartPath   string
	RenderPath  string
	PreviewPath string
}

func (f fakeRenderer) Render(ctx context.Context, doc core.Document) (string, error) {
	return f.RenderPath, nil
}

func (f fakeRenderer) Preview(ctx context.Context, reportPath string, maxPages int) (string, error) {
	return f.PreviewPath, nil
}

func (f fakeRenderer) Chart(ctx context.Context, visualType core.VisualType, data map[string]any) (string, error) {
	return f.ChartPath, nil
}

// fakeBrowserDialer hands out fakeBrowserHandles that resolve a URL to a
// scripted HTML body, or fail if the URL isn't scripted.
type fakeBrowserDialer struct {
	ByURL map[string]string
}

func (f fakeBrowserDialer) Dial(ctx context.Context, addr string) (core.BrowserHandle, error) {
	return fakeBrowserHandle{byURL: f.ByURL}, nil
}

type fakeBrowserHandle struct {
	byURL map[string]string
}

func (f fakeBrowserHandle) Navigate(ctx context.Context, url string) (string, error) {
	html, ok := f.byURL[url]
	if !ok {
		return "", fmt.Errorf("fakeBrowserHandle: no scripted page for %s", url)
	}
	return html, nil
}

func (f fakeBrowserHandle) Close() error { return nil }

func testConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.SubSectionConcurrency = 2
	cfg.SearchConcurrency = 2
	return cfg
}
