package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type subSectionsInput struct {
	Title   string
	Message string
	Section string
}

var subSectionsSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"sub_sections": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
			Properties: map[string]llmtask.Field{},
		}},
	},
}

type subSectionNames struct {
	names []string
	cost  core.GenerationResult
}

// NewGenerateSubSections asks the model for each section's sub-section
// names, one call per section run concurrently, with results collected back
// in section order.
func NewGenerateSubSections(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "sub-section", subSectionsSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		results := fn.ParMapResult(s.Sections, ectx.Config.SubSectionConcurrency, func(section string) fn.Result[subSectionNames] {
			input := subSectionsInput{Title: s.Title, Message: s.UserInput, Section: section}
			out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
			if err != nil {
				return fn.Err[subSectionNames](fmt.Errorf("stage generate_sub_sections: section %q: %w", section, err))
			}
			names, err := stringList(out.Object["sub_sections"])
			if err != nil {
				return fn.Err[subSectionNames](invariantf(core.StageGenerateSubSections, "sub_sections: %v", err))
			}
			return fn.Ok(subSectionNames{names: names, cost: out.Cost})
		})

		next := s.Clone()
		next.SubSections = make([][]string, len(results))
		for i, r := range results {
			v, err := r.Unwrap()
			if err != nil {
				return fn.Err[core.ReportState](err)
			}
			next.SubSections[i] = v.names
			next.AppendGenerationResult(v.cost)
		}
		return fn.Ok(next)
	}
}
