package llmtask

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/finalyze/core/engine/core"
)

// PromptCache is a process-local, read-through cache in front of a
// core.PromptLookup (the `prompt` collection in the state store). The
// original implementation memoized prompt templates behind a single
// lazily-initialized global; since many distinct prompt keys need
// independent memoization, a sync.Map keyed by prompt name serves that role
// without a package-level mutable singleton.
type PromptCache struct {
	backing core.PromptLookup
	cache   sync.Map // string -> string
}

// NewPromptCache wraps backing with a read-through cache.
func NewPromptCache(backing core.PromptLookup) *PromptCache {
	return &PromptCache{backing: backing}
}

// Prompt returns the template for key, fetching from the backing lookup at
// most once per key for the lifetime of the cache.
func (c *PromptCache) Prompt(ctx context.Context, key string) (string, error) {
	if v, ok := c.cache.Load(key); ok {
		return v.(string), nil
	}
	tmpl, err := c.backing.Prompt(ctx, key)
	if err != nil {
		return "", err
	}
	c.cache.Store(key, tmpl)
	return tmpl, nil
}

// promptSeedFile mirrors the on-disk shape of a prompts.toml seed: a flat
// table of prompt-key -> template-string pairs, loaded once at startup and
// used to populate the state store's `prompt` collection.
type promptSeedFile struct {
	Prompts map[string]string `toml:"prompts"`
}

// LoadSeed parses a prompts.toml file into a key->template map
// suitable for seeding a core.StateStore's prompt collection on first run.
func LoadSeed(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("llmtask: read prompt seed %s: %w", path, err)
	}
	var f promptSeedFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("llmtask: parse prompt seed %s: %w", path, err)
	}
	return f.Prompts, nil
}

// staticPromptLookup implements core.PromptLookup directly over an in-memory
// map, for tests and for bootstrapping before the state store is seeded.
type staticPromptLookup struct {
	prompts map[string]string
}

// NewStaticPromptLookup returns a core.PromptLookup backed by a fixed map.
func NewStaticPromptLookup(prompts map[string]string) core.PromptLookup {
	return &staticPromptLookup{prompts: prompts}
}

func (s *staticPromptLookup) Prompt(_ context.Context, key string) (string, error) {
	tmpl, ok := s.prompts[key]
	if !ok {
		return "", fmt.Errorf("%w: prompt %q", core.ErrNotFound, key)
	}
	return tmpl, nil
}
