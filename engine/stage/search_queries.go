package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type searchQueriesBody struct {
	Title    string                   `json:"title"`
	Date     string                   `json:"date"`
	Sections []sectionWithSubSections `json:"sections"`
}

type searchQueriesInput struct {
	Input string
}

var searchQueriesSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"queries": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
			Properties: map[string]llmtask.Field{},
		}},
	},
}

// NewGenerateSearchQueries asks the model for the web search queries needed
// to research every section, given the same serialized section/sub-section
// tree as GenerateSubSectionQuestions.
func NewGenerateSearchQueries(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		if len(s.Sections) != len(s.SubSections) {
			return fn.Err[core.ReportState](invariantf(core.StageGenerateSearchQueries,
				"sections (%d) and sub_sections (%d) length mismatch", len(s.Sections), len(s.SubSections)))
		}

		body := searchQueriesBody{
			Title: s.Title,
			Date:  time.Now().UTC().Format(time.RFC3339),
		}
		for i, section := range s.Sections {
			body.Sections = append(body.Sections, sectionWithSubSections{
				Section:     section,
				SubSections: s.SubSections[i],
			})
		}
		raw, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_search_queries: marshal input: %w", err))
		}

		task, err := structuredTask(ctx, ectx, "search", searchQueriesSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}
		out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), searchQueriesInput{Input: string(raw)}, retryPolicy(ectx))
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_search_queries: %w", err))
		}

		queries, err := stringList(out.Object["queries"])
		if err != nil {
			return fn.Err[core.ReportState](invariantf(core.StageGenerateSearchQueries, "queries: %v", err))
		}

		next := s.Clone()
		next.Searches = queries
		next.AppendGenerationResult(out.Cost)
		return fn.Ok(next)
	}
}
