package stage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func baseAnswerState() core.ReportState {
	return core.ReportState{
		ID:                  "report1",
		Title:               "State of Apple in 2025",
		Sections:            []string{"Introduction"},
		SubSections:         [][]string{{"Background"}},
		SubSectionQuestions: [][][]string{{{"What shaped Apple's market position?"}}},
	}
}

func TestAnswerQuestionsStage(t *testing.T) {
	vectors := newFakeVectors()
	vectors.Rows["report1"] = []core.ChunkEmbedding{
		{SourceID: "website0", Chunk: "Apple's revenue grew 4% year over year."},
	}
	ectx := &core.Context{
		LLM:     &fakeLLM{Responses: []string{"Apple's revenue grew, driven by services."}},
		Vectors: vectors,
		Prompts: fakePrompts{},
		Config:  testConfig(),
	}
	next, err := NewAnswerQuestions(ectx)(context.Background(), baseAnswerState()).Unwrap()
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	pairs := next.QuestionAnswerPairs[0][0]
	if len(pairs) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(pairs))
	}
	if pairs[0].Answer != "Apple's revenue grew, driven by services." {
		t.Errorf("unexpected answer: %q", pairs[0].Answer)
	}
}

func TestAnswerQuestionsStage_EmptyContextIsFatal(t *testing.T) {
	ectx := &core.Context{
		LLM:     &fakeLLM{Responses: []string{"unused"}},
		Vectors: newFakeVectors(), // no rows for "report1"
		Prompts: fakePrompts{},
		Config:  testConfig(),
	}
	_, err := NewAnswerQuestions(ectx)(context.Background(), baseAnswerState()).Unwrap()
	if err == nil {
		t.Fatal("expected invariant violation for empty retrieval context")
	}
	if !errors.Is(err, core.ErrInvariantViolation) {
		t.Errorf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestAssembleContext_StopsAtBudget(t *testing.T) {
	chunks := []core.ChunkEmbedding{
		{SourceID: "a", Chunk: strings.Repeat("x", 3000)},
		{SourceID: "b", Chunk: strings.Repeat("y", 3000)},
		{SourceID: "c", Chunk: strings.Repeat("z", 3000)},
	}
	ctx := assembleContext(chunks, 4096)
	if strings.Contains(ctx, "zzz") {
		t.Error("expected third chunk to be excluded once budget was reached")
	}
	if !strings.Contains(ctx, "# START - Source ID: a") || !strings.Contains(ctx, "# STOP - Source ID: a") {
		t.Error("expected first chunk bracketed by start/stop markers")
	}
}
