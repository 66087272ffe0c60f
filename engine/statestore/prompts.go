package statestore

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
)

const collectionPrompt = "prompt"

// promptDoc is the document shape stored in the prompt collection.
type promptDoc struct {
	Key      string `json:"key"`
	Template string `json:"template"`
}

// PromptStore implements core.PromptLookup over the prompt collection,
// keyed by prompt name (`validation`, `title`, `section`, ...).
type PromptStore struct {
	repo *CollectionRepo[promptDoc]
}

// NewPromptStore builds a core.PromptLookup backed by store.
func NewPromptStore(store *Store) *PromptStore {
	return &PromptStore{
		repo: NewCollectionRepo(store, collectionPrompt, func(d promptDoc) string { return d.Key }),
	}
}

// Prompt returns the template text registered under key.
func (p *PromptStore) Prompt(ctx context.Context, key string) (string, error) {
	doc, err := p.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return doc.Template, nil
}

// Seed upserts every entry of prompts (as produced by llmtask.LoadSeed) into
// the prompt collection, keyed by map key. Intended for first-run bootstrap
// from prompts.toml; re-running it overwrites existing templates.
func (p *PromptStore) Seed(ctx context.Context, prompts map[string]string) error {
	for key, template := range prompts {
		if err := p.repo.Upsert(ctx, promptDoc{Key: key, Template: template}); err != nil {
			return fmt.Errorf("statestore: seed prompt %q: %w", key, err)
		}
	}
	return nil
}

var _ core.PromptLookup = (*PromptStore)(nil)
