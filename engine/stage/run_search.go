package stage

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// tickerPattern matches user input that looks like a bare stock ticker
// (1-5 uppercase letters), the signal used to trigger the optional
// SEC/EDGAR-style enrichment search alongside the general search provider.
var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// NewRunSearch runs one concurrent search per query against the general
// search provider, and — when the user input looks like a ticker symbol —
// an additional filings-lookup search, then unions, sorts, and dedups every
// URL found.
func NewRunSearch(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		results := fn.ParMapResult(s.Searches, ectx.Config.SearchConcurrency, func(query string) fn.Result[[]string] {
			urls, err := ectx.Search.Search(ctx, query, ectx.Config.SearchResultsPerQuery)
			if err != nil {
				return fn.Err[[]string](fmt.Errorf("stage run_search: query %q: %w", query, err))
			}
			return fn.Ok(urls)
		})

		seen := make(map[string]struct{})
		var urls []string
		for _, r := range results {
			found, err := r.Unwrap()
			if err != nil {
				return fn.Err[core.ReportState](err)
			}
			for _, u := range found {
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}

		if ectx.Filings != nil && tickerPattern.MatchString(s.UserInput) {
			filingURLs, err := ectx.Filings.Search(ctx, s.UserInput, ectx.Config.SearchResultsPerQuery)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage run_search: filings lookup: %w", err))
			}
			for _, u := range filingURLs {
				if _, ok := seen[u]; ok {
					continue
				}
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}

		sort.Strings(urls)

		next := s.Clone()
		next.SearchURLs = urls
		return fn.Ok(next)
	}
}
