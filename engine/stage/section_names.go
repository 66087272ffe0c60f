package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type sectionNamesInput struct {
	Title   string
	Message string
}

var sectionNamesSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"sections": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
			Properties: map[string]llmtask.Field{},
		}},
	},
}

// NewGenerateSectionNames asks the model for the top-level section names of
// the report, given its title and the original request.
func NewGenerateSectionNames(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "section", sectionNamesSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}
		input := sectionNamesInput{Title: s.Title, Message: s.UserInput}
		out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_section_names: %w", err))
		}

		sections, err := stringList(out.Object["sections"])
		if err != nil {
			return fn.Err[core.ReportState](invariantf(core.StageGenerateSectionNames, "sections: %v", err))
		}

		next := s.Clone()
		next.Sections = sections
		next.AppendGenerationResult(out.Cost)
		return fn.Ok(next)
	}
}

// stringList coerces a decoded JSON array value into a []string.
func stringList(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]string, len(raw))
	for i, e := range raw {
		str, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: expected string, got %T", i, e)
		}
		out[i] = str
	}
	return out, nil
}
