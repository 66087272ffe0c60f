package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type classifySourcesInput struct {
	Input string
}

var classifySourcesSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"title":           {Type: llmtask.TypeString, Required: true},
		"author":          {Type: llmtask.TypeString, Required: true},
		"date":            {Type: llmtask.TypeString},
		"published_after": {Type: llmtask.TypeBool},
	},
}

// NewClassifySources asks the model for each source's title, author, date,
// and whether it was published after the report's cutoff, assigning each
// source an id of the form "website<index>".
func NewClassifySources(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "content-classifier", classifySourcesSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		next := s.Clone()
		next.Sources = make([]core.Source, len(s.MDSources))
		for i, src := range s.MDSources {
			out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), classifySourcesInput{Input: src.Content}, retryPolicy(ectx))
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage classify_sources: %s: %w", src.URL, err))
			}
			title, _ := out.Object["title"].(string)
			author, _ := out.Object["author"].(string)
			date, _ := out.Object["date"].(string)
			publishedAfter, _ := out.Object["published_after"].(bool)

			next.Sources[i] = core.Source{
				ID:             fmt.Sprintf("website%d", i),
				URL:            src.URL,
				Title:          title,
				Author:         author,
				Date:           date,
				PublishedAfter: publishedAfter,
				Content:        src.Content,
			}
			next.AppendGenerationResult(out.Cost)
		}
		return fn.Ok(next)
	}
}
