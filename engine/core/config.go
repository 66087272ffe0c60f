package core

import "time"

// Config holds the tunables that the original implementation hard-coded
// (retry counts, backoff, pool size, fan-out concurrency). See DESIGN.md's
// "Open Question resolutions" for why each field exists.
type Config struct {
	// LLM retry policy: network errors retry with exponential backoff up
	// to MaxAttempts; invalid JSON retries once then fails.
	LLMMaxAttempts  int
	LLMInitialWait  time.Duration
	LLMMaxWait      time.Duration

	// BrowserPoolSize is N, the fixed number of headless-browser handles.
	// Default 4.
	BrowserPoolSize int
	// BrowserPoolHost and BrowserPoolBasePort address handle 0; subsequent
	// handles are at BrowserPoolBasePort+1..N-1 on the same host.
	BrowserPoolHost     string
	BrowserPoolBasePort int
	// ScrapeTimeout is the per-URL navigation timeout. Default 2s.
	ScrapeTimeout time.Duration

	// SearchResultsPerQuery is how many URLs are kept per query. Default 3.
	SearchResultsPerQuery int

	// FormatContentConcurrency is the semaphore permit count for the
	// FormatContent stage. Default 1 (serial).
	FormatContentConcurrency int
	// SubSectionConcurrency bounds the fan-out for GenerateSubSections.
	SubSectionConcurrency int
	// SearchConcurrency bounds the fan-out for RunSearch.
	SearchConcurrency int
	// ScrapeConcurrency bounds the fan-out for ScrapePages.
	ScrapeConcurrency int

	// RetrievalTopK is how many chunks are retrieved per question in
	// AnswerQuestions.
	RetrievalTopK int
	// RetrievalContextBudget is the length at which context assembly stops.
	// Default 4096.
	RetrievalContextBudget int

	// EmbeddingDims is the fixed embedding dimension used to size the
	// vector index collection.
	EmbeddingDims int
}

// DefaultConfig returns the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		LLMMaxAttempts: 3,
		LLMInitialWait: time.Second,
		LLMMaxWait:     30 * time.Second,

		BrowserPoolSize:     4,
		BrowserPoolHost:     "localhost",
		BrowserPoolBasePort: 4444,
		ScrapeTimeout:       2 * time.Second,

		SearchResultsPerQuery: 3,

		FormatContentConcurrency: 1,
		SubSectionConcurrency:    4,
		SearchConcurrency:        4,
		ScrapeConcurrency:        4,

		RetrievalTopK:          5,
		RetrievalContextBudget: 4096,

		EmbeddingDims: 768,
	}
}
