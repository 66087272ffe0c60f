package core

import "context"

// LLMClient is the minimal surface the LLM Task Runner (C1) needs from a
// model backend. Implementations live in engine/llmtask.
type LLMClient interface {
	// Generate calls the model with a rendered prompt and an optional JSON
	// schema (nil for raw mode). Returns the raw generated text plus cost
	// accounting.
	Generate(ctx context.Context, prompt string, schema []byte) (text string, result GenerationResult, err error)
	// Embed returns the embedding vector for a piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchProvider is the minimal surface the Search Client (C4) needs from
// an external search endpoint.
type SearchProvider interface {
	// Search returns up to limit URLs for query, in the order the endpoint
	// returned them.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// BrowserHandle is a single headless-browser connection (C3).
type BrowserHandle interface {
	// Navigate loads url and returns the rendered page's HTML.
	Navigate(ctx context.Context, url string) (string, error)
	Close() error
}

// BrowserDialer creates a BrowserHandle connected to addr (host:port).
type BrowserDialer interface {
	Dial(ctx context.Context, addr string) (BrowserHandle, error)
}

// StateStore is the durable key->state mapping (C9).
type StateStore interface {
	Upsert(ctx context.Context, s ReportState) error
	Get(ctx context.Context, id string) (ReportState, error)
}

// VectorIndex is the minimal surface the AnswerQuestions/IndexChunks stages
// need from the vector store (C2).
type VectorIndex interface {
	Insert(ctx context.Context, reportID string, rows []ChunkEmbedding) error
	Search(ctx context.Context, reportID string, query []float32, topK int) ([]ChunkEmbedding, error)
}

// PromptLookup resolves a prompt template by its key in the `prompt`
// collection.
type PromptLookup interface {
	Prompt(ctx context.Context, key string) (string, error)
}

// Renderer is the external document-typesetting collaborator (out of core
// scope; stages call it through this interface only).
type Renderer interface {
	Render(ctx context.Context, doc Document) (path string, err error)
	Preview(ctx context.Context, reportPath string, maxPages int) (previewPath string, err error)
	// Chart renders a single visual's type-specific data record (the
	// decoded output of the GenerateVisuals structured call) into an image
	// and returns its path. Only called for chart types, not VisualTable.
	Chart(ctx context.Context, visualType VisualType, data map[string]any) (path string, err error)
}

// Publisher re-enqueues the next-stage message (C8's "republish" step).
type Publisher interface {
	Publish(ctx context.Context, s ReportState) error
}

// Context bundles every external collaborator a stage may need, replacing
// process-wide singletons: one record is built at startup and passed to
// the scheduler, and stages receive it as an argument instead of reaching
// for a global.
type Context struct {
	LLM      LLMClient
	Search   SearchProvider
	Browsers BrowserDialer
	Vectors  VectorIndex
	Prompts  PromptLookup
	Store    StateStore
	Render   Renderer
	Config   Config

	// Filings is the optional SEC/EDGAR-style enrichment search used by
	// RunSearch when the user input looks like a ticker symbol. Nil
	// disables the enrichment entirely.
	Filings SearchProvider
}
