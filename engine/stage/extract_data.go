package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/tabular"
	"github.com/finalyze/core/pkg/fn"
)

// NewExtractData runs the tabular extractor across every markdown source,
// flattening every table it finds into one CSV string per table.
func NewExtractData(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		next := s.Clone()
		for _, src := range s.MDSources {
			csvs, err := tabular.Extract(src.Content)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage extract_data: %s: %w", src.URL, err))
			}
			next.CSVSources = append(next.CSVSources, csvs...)
		}
		return fn.Ok(next)
	}
}
