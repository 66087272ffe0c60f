package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

// validationInput is also used by GenerateTitle: both prompts take the raw
// user request as `message`.
type validationInput struct {
	Message string
}

var validationSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"valid": {Type: llmtask.TypeBool, Required: true},
		"error": {Type: llmtask.TypeString},
	},
}

// NewValidation judges whether user_input describes a request the rest of
// the pipeline can act on (a company, ticker, or market topic a research
// report can be built around).
func NewValidation(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "validation", validationSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}
		out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), validationInput{Message: s.UserInput}, retryPolicy(ectx))
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage validation: %w", err))
		}

		valid, _ := out.Object["valid"].(bool)
		msg, _ := out.Object["error"].(string)

		next := s.Clone()
		next.Validation = &core.ValidationResult{Valid: valid, Error: msg}
		next.AppendGenerationResult(out.Cost)
		return fn.Ok(next)
	}
}
