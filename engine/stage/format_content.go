package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/pkg/fn"
)

type formatContentInput struct {
	Date    string
	Content string
	URL     string
}

// NewFormatContent reformats each markdown source with a date-aware prompt,
// fanned out under a semaphore whose default permit count (1) makes the
// stage effectively serial.
func NewFormatContent(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := promptTask(ctx, ectx, "source-formatter")
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		type formatted struct {
			url     string
			content string
			cost    core.GenerationResult
		}
		date := time.Now().UTC().Format("2006-01-02")
		results := fn.ParMapResult(s.MDSources, ectx.Config.FormatContentConcurrency, func(src core.URLContent) fn.Result[formatted] {
			input := formatContentInput{Date: date, Content: src.Content, URL: src.URL}
			out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
			if err != nil {
				return fn.Err[formatted](fmt.Errorf("stage format_content: %s: %w", src.URL, err))
			}
			return fn.Ok(formatted{url: src.URL, content: out.Text, cost: out.Cost})
		})

		next := s.Clone()
		next.MDSources = make([]core.URLContent, len(results))
		for i, r := range results {
			v, err := r.Unwrap()
			if err != nil {
				return fn.Err[core.ReportState](err)
			}
			next.MDSources[i] = core.URLContent{URL: v.url, Content: v.content}
			next.AppendGenerationResult(v.cost)
		}
		return fn.Ok(next)
	}
}
