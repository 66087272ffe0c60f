package stage

import (
	"context"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func TestSectionizeAnswersStage(t *testing.T) {
	ectx := &core.Context{
		LLM:     &fakeLLM{Responses: []string{"Apple's background is shaped by decades of product innovation."}},
		Prompts: fakePrompts{},
		Config:  testConfig(),
	}
	state := core.ReportState{
		QuestionAnswerPairs: [][][]core.QuestionAnswer{
			{{{Question: "What shaped Apple's market position?", Answer: "Decades of iterative product design."}}},
		},
	}
	next, err := NewSectionizeAnswers(ectx)(context.Background(), state).Unwrap()
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if len(next.SubSectionContents) != 1 || len(next.SubSectionContents[0]) != 1 {
		t.Fatalf("unexpected shape: %v", next.SubSectionContents)
	}
	if next.SubSectionContents[0][0] != "Apple's background is shaped by decades of product innovation." {
		t.Errorf("unexpected content: %q", next.SubSectionContents[0][0])
	}
}
