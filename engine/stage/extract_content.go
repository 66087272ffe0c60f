package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/htmlmd"
	"github.com/finalyze/core/pkg/fn"
)

// NewExtractContent converts every scraped HTML source to markdown.
func NewExtractContent(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		next := s.Clone()
		next.MDSources = make([]core.URLContent, 0, len(s.HTMLSources))
		for _, src := range s.HTMLSources {
			md, err := htmlmd.Extract(src.Content)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage extract_content: %s: %w", src.URL, err))
			}
			next.MDSources = append(next.MDSources, core.URLContent{URL: src.URL, Content: md})
		}
		return fn.Ok(next)
	}
}
