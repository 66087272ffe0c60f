package statestore

import (
	"context"
	"errors"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func TestPromptStore_SeedThenLookup(t *testing.T) {
	store := openTestStore(t)
	prompts := NewPromptStore(store)
	ctx := context.Background()

	err := prompts.Seed(ctx, map[string]string{
		"validation": "Decide whether {{.UserInput}} is a valid report request.",
		"title":      "Generate a title for {{.UserInput}}.",
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	got, err := prompts.Prompt(ctx, "validation")
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if got != "Decide whether {{.UserInput}} is a valid report request." {
		t.Fatalf("got %q", got)
	}
}

func TestPromptStore_UnknownKeyIsNotFound(t *testing.T) {
	store := openTestStore(t)
	prompts := NewPromptStore(store)

	_, err := prompts.Prompt(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected core.ErrNotFound, got %v", err)
	}
}

func TestPromptStore_SeedOverwritesExisting(t *testing.T) {
	store := openTestStore(t)
	prompts := NewPromptStore(store)
	ctx := context.Background()

	prompts.Seed(ctx, map[string]string{"title": "v1"})
	prompts.Seed(ctx, map[string]string{"title": "v2"})

	got, err := prompts.Prompt(ctx, "title")
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if got != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
}
