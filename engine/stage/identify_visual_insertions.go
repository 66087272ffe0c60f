package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type identifyInsertionInput struct {
	VisualTitle string
	Sections    []string
	SubSections [][]string
	Contents    [][]string
}

var identifyInsertionSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"section_index":     {Type: llmtask.TypeNumber, Required: true},
		"sub_section_index": {Type: llmtask.TypeNumber, Required: true},
		"after_paragraph":   {Type: llmtask.TypeNumber, Required: true},
	},
}

// NewIdentifyVisualInsertions asks the model, once per chart and once per
// table, where in the rendered document that visual should be placed
// relative to its target sub-section's paragraphs.
func NewIdentifyVisualInsertions(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "graph-insertion", identifyInsertionSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		input := identifyInsertionInput{Sections: s.Sections, SubSections: s.SubSections, Contents: s.SubSectionContents}

		next := s.Clone()
		next.ChartPositions = make([]core.VisualPosition, len(s.Charts))
		for i, chart := range s.Charts {
			title := visualTitle(s, chart.VisualIndex)
			in := input
			in.VisualTitle = title
			pos, cost, err := placeVisual(ctx, ectx, task, in)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage identify_visual_insertions: chart %d: %w", i, err))
			}
			next.ChartPositions[i] = pos
			next.AppendGenerationResult(cost)
		}

		next.TablePositions = make([]core.VisualPosition, len(s.Tables))
		for i, table := range s.Tables {
			in := input
			in.VisualTitle = table.Title
			pos, cost, err := placeVisual(ctx, ectx, task, in)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage identify_visual_insertions: table %d: %w", i, err))
			}
			next.TablePositions[i] = pos
			next.AppendGenerationResult(cost)
		}
		return fn.Ok(next)
	}
}

func visualTitle(s core.ReportState, dataSourceIndex int) string {
	if dataSourceIndex < 0 || dataSourceIndex >= len(s.ClassifiedDataSources) {
		return ""
	}
	return s.ClassifiedDataSources[dataSourceIndex].Title
}

func placeVisual(ctx context.Context, ectx *core.Context, task llmtask.Task, input identifyInsertionInput) (core.VisualPosition, core.GenerationResult, error) {
	out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
	if err != nil {
		return core.VisualPosition{}, core.GenerationResult{}, err
	}
	sectionIdx, _ := out.Object["section_index"].(float64)
	subSectionIdx, _ := out.Object["sub_section_index"].(float64)
	afterParagraph, _ := out.Object["after_paragraph"].(float64)
	return core.VisualPosition{
		SectionIndex:    int(sectionIdx),
		SubSectionIndex: int(subSectionIdx),
		AfterParagraph:  int(afterParagraph),
	}, out.Cost, nil
}
