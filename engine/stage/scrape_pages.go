package stage

import (
	"context"

	"github.com/finalyze/core/engine/browserpool"
	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// NewScrapePages constructs a fresh browser pool, fans one scrape task out
// per URL, and closes every handle once all tasks finish. A URL that fails
// to navigate (including timeout) is silently dropped rather than retried or
// failing the stage.
func NewScrapePages(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		pool, err := browserpool.New(ctx, ectx.Browsers, ectx.Config.BrowserPoolHost,
			ectx.Config.BrowserPoolBasePort, ectx.Config.BrowserPoolSize, ectx.Config.ScrapeTimeout)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}
		defer pool.Close()

		type scraped struct {
			url  string
			html string
			ok   bool
		}
		results := fn.ParMap(s.SearchURLs, ectx.Config.ScrapeConcurrency, func(url string) scraped {
			html, err := pool.Navigate(ctx, url)
			if err != nil {
				return scraped{url: url, ok: false}
			}
			return scraped{url: url, html: html, ok: true}
		})

		next := s.Clone()
		for _, r := range results {
			if !r.ok {
				continue
			}
			next.HTMLSources = append(next.HTMLSources, core.URLContent{URL: r.url, Content: r.html})
		}
		return fn.Ok(next)
	}
}
