package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

var titleSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"title": {Type: llmtask.TypeString, Required: true},
	},
}

// NewGenerateTitle asks the model for a report title from the user's
// original request.
func NewGenerateTitle(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "title", titleSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}
		out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), validationInput{Message: s.UserInput}, retryPolicy(ectx))
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_title: %w", err))
		}

		title, _ := out.Object["title"].(string)

		next := s.Clone()
		next.Title = title
		next.AppendGenerationResult(out.Cost)
		return fn.Ok(next)
	}
}
