package stage

import (
	"context"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func TestExtractDataStage(t *testing.T) {
	ectx := &core.Context{Config: testConfig()}
	state := core.ReportState{
		MDSources: []core.URLContent{
			{URL: "https://a.example", Content: "|Metric|Value|\n|---|---|\n|Revenue|$100B|"},
			{URL: "https://b.example", Content: "no tables here"},
		},
	}
	next, err := NewExtractData(ectx)(context.Background(), state).Unwrap()
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if len(next.CSVSources) != 1 {
		t.Fatalf("expected 1 csv table, got %d", len(next.CSVSources))
	}
	if next.CSVSources[0] != "Metric,Value\nRevenue,$100B\n" {
		t.Errorf("unexpected csv: %q", next.CSVSources[0])
	}
}
