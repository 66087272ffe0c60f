package llmtask

import (
	"context"
	"testing"
)

// countingLookup counts Prompt calls per key to verify cache hits.
type countingLookup struct {
	prompts map[string]string
	calls   map[string]int
}

func newCountingLookup(prompts map[string]string) *countingLookup {
	return &countingLookup{prompts: prompts, calls: map[string]int{}}
}

func (c *countingLookup) Prompt(_ context.Context, key string) (string, error) {
	c.calls[key]++
	return c.prompts[key], nil
}

func TestPromptCache_ReadsThroughOnce(t *testing.T) {
	backing := newCountingLookup(map[string]string{"title": "Write a title for {{.Topic}}"})
	cache := NewPromptCache(backing)

	for i := 0; i < 3; i++ {
		tmpl, err := cache.Prompt(context.Background(), "title")
		if err != nil {
			t.Fatalf("Prompt returned error: %v", err)
		}
		if tmpl != "Write a title for {{.Topic}}" {
			t.Fatalf("Prompt = %q", tmpl)
		}
	}
	if backing.calls["title"] != 1 {
		t.Fatalf("backing lookup called %d times, want 1", backing.calls["title"])
	}
}

func TestPromptCache_IndependentKeys(t *testing.T) {
	backing := newCountingLookup(map[string]string{"title": "t", "summary": "s"})
	cache := NewPromptCache(backing)

	if _, err := cache.Prompt(context.Background(), "title"); err != nil {
		t.Fatalf("Prompt(title) error: %v", err)
	}
	if _, err := cache.Prompt(context.Background(), "summary"); err != nil {
		t.Fatalf("Prompt(summary) error: %v", err)
	}
	if backing.calls["title"] != 1 || backing.calls["summary"] != 1 {
		t.Fatalf("unexpected call counts: %+v", backing.calls)
	}
}

func TestStaticPromptLookup_NotFound(t *testing.T) {
	lookup := NewStaticPromptLookup(map[string]string{"title": "t"})
	if _, err := lookup.Prompt(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing prompt key")
	}
}
