package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type generateVisualInput struct {
	VisualType  string
	Title       string
	Description string
	Columns     []string
}

// visualDataSchema accepts an arbitrary record: the shape varies by visual
// type (labels/values for line/bar/pie, dates/open/close for stock,
// headers/rows for table), and the hand-rolled validator only needs to
// confirm the top level is an object.
var visualDataSchema = llmtask.Schema{Properties: map[string]llmtask.Field{}}

// NewGenerateVisuals runs one structured LLM call per visual to extract a
// type-specific data record, then either hands it to the external chart
// renderer (line/bar/pie/stock) or turns it directly into a table spec.
func NewGenerateVisuals(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "visual-data", visualDataSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		next := s.Clone()
		for i, v := range s.Visuals {
			if v.DataSourceIndex < 0 || v.DataSourceIndex >= len(s.ClassifiedDataSources) {
				return fn.Err[core.ReportState](invariantf(core.StageGenerateVisuals,
					"visual %d: data source index %d out of range", i, v.DataSourceIndex))
			}
			ds := s.ClassifiedDataSources[v.DataSourceIndex]
			columns := make([]string, len(ds.Columns))
			for c, col := range ds.Columns {
				columns[c] = col.Name
			}
			input := generateVisualInput{VisualType: string(v.Type), Title: ds.Title, Description: ds.Description, Columns: columns}
			out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage generate_visuals: visual %d: %w", i, err))
			}
			next.AppendGenerationResult(out.Cost)

			if v.Type == core.VisualTable {
				table, err := tableFromRecord(v, ds, out.Object)
				if err != nil {
					return fn.Err[core.ReportState](invariantf(core.StageGenerateVisuals, "visual %d: %v", i, err))
				}
				next.Tables = append(next.Tables, table)
				continue
			}

			path, err := ectx.Render.Chart(ctx, v.Type, out.Object)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage generate_visuals: visual %d: render chart: %w", i, err))
			}
			next.Charts = append(next.Charts, core.Chart{VisualIndex: i, Path: path})
		}
		return fn.Ok(next)
	}
}

func tableFromRecord(v core.Visual, ds core.ClassifiedDataSource, record map[string]any) (core.Table, error) {
	headers, err := stringList(record["headers"])
	if err != nil {
		return core.Table{}, fmt.Errorf("headers: %w", err)
	}
	rawRows, ok := record["rows"].([]any)
	if !ok {
		return core.Table{}, fmt.Errorf("expected rows array, got %T", record["rows"])
	}
	rows := make([][]string, len(rawRows))
	for i, rowAny := range rawRows {
		row, err := stringList(rowAny)
		if err != nil {
			return core.Table{}, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return core.Table{VisualIndex: v.DataSourceIndex, Title: ds.Title, Headers: headers, Rows: rows}, nil
}
