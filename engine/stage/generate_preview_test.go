package stage

import (
	"context"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func TestGeneratePreviewStage(t *testing.T) {
	ectx := &core.Context{Render: fakeRenderer{PreviewPath: "/tmp/preview.pdf"}}
	state := core.ReportState{Report: "/tmp/report.pdf"}
	next, err := NewGeneratePreview(ectx)(context.Background(), state).Unwrap()
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if next.Preview != "/tmp/preview.pdf" {
		t.Errorf("unexpected preview path: %q", next.Preview)
	}
}
