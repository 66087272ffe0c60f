package stage

import (
	"context"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// NewChunkContent produces one chunk per source, the whole source's content
// verbatim. No sub-splitting: retrieval granularity is per-source.
func NewChunkContent(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		next := s.Clone()
		next.Chunks = make([]core.Chunk, len(s.Sources))
		for i, src := range s.Sources {
			next.Chunks[i] = core.Chunk{SourceID: src.ID, Content: src.Content}
		}
		return fn.Ok(next)
	}
}
