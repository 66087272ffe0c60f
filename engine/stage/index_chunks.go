package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// NewIndexChunks embeds every chunk sequentially, then writes the whole
// batch to the vector index in one call, partitioned by report id.
func NewIndexChunks(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		next := s.Clone()
		next.ChunkEmbeddings = make([]core.ChunkEmbedding, len(s.Chunks))
		for i, c := range s.Chunks {
			vec, err := ectx.LLM.Embed(ctx, c.Content)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage index_chunks: source %s: %w", c.SourceID, err))
			}
			next.ChunkEmbeddings[i] = core.ChunkEmbedding{SourceID: c.SourceID, Chunk: c.Content, Embedding: vec}
		}
		if err := ectx.Vectors.Insert(ctx, s.ID, next.ChunkEmbeddings); err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage index_chunks: insert: %w", err))
		}
		return fn.Ok(next)
	}
}
