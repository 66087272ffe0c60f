package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type identifyVisualsInput struct {
	ChartOptions []string
	Title        string
	Description  string
	Columns      []string
}

var identifyVisualsSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"visual_type": {Type: llmtask.TypeString, Required: true},
	},
}

var chartOptions = []string{
	string(core.VisualLine), string(core.VisualBar), string(core.VisualPie),
	string(core.VisualStock), string(core.VisualTable),
}

// NewIdentifyVisuals asks the model to pick one visualization type for each
// classified data source.
func NewIdentifyVisuals(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "visual-identifier", identifyVisualsSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		next := s.Clone()
		next.Visuals = make([]core.Visual, len(s.ClassifiedDataSources))
		for i, ds := range s.ClassifiedDataSources {
			columns := make([]string, len(ds.Columns))
			for c, col := range ds.Columns {
				columns[c] = col.Name
			}
			input := identifyVisualsInput{
				ChartOptions: chartOptions,
				Title:        ds.Title,
				Description:  ds.Description,
				Columns:      columns,
			}
			out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage identify_visuals: data source %d: %w", i, err))
			}
			visualType, _ := out.Object["visual_type"].(string)
			next.Visuals[i] = core.Visual{DataSourceIndex: i, Type: core.VisualType(visualType)}
			next.AppendGenerationResult(out.Cost)
		}
		return fn.Ok(next)
	}
}
