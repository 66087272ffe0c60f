package stage

import (
	"context"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func TestChunkContentStage(t *testing.T) {
	ectx := &core.Context{}
	state := core.ReportState{Sources: []core.Source{
		{ID: "website0", Content: "Apple's revenue grew 4%."},
		{ID: "website1", Content: "Apple's market share held steady."},
	}}
	next, err := NewChunkContent(ectx)(context.Background(), state).Unwrap()
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if len(next.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(next.Chunks))
	}
	if next.Chunks[0].SourceID != "website0" || next.Chunks[0].Content != "Apple's revenue grew 4%." {
		t.Errorf("unexpected chunk: %+v", next.Chunks[0])
	}
}

func TestIndexChunksStage_InsertsIntoVectorIndex(t *testing.T) {
	vectors := newFakeVectors()
	ectx := &core.Context{LLM: &fakeLLM{Embedding: []float32{1, 2, 3}}, Vectors: vectors}
	state := core.ReportState{
		ID:     "report1",
		Chunks: []core.Chunk{{SourceID: "website0", Content: "text"}},
	}
	next, err := NewIndexChunks(ectx)(context.Background(), state).Unwrap()
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if len(next.ChunkEmbeddings) != 1 {
		t.Fatalf("expected 1 embedding, got %d", len(next.ChunkEmbeddings))
	}
	if len(vectors.Rows["report1"]) != 1 {
		t.Fatalf("expected 1 row inserted into vector index, got %d", len(vectors.Rows["report1"]))
	}
}
