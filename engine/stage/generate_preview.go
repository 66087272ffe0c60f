package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// previewMaxPages is how many pages of the rendered report survive into the
// preview document.
const previewMaxPages = 5

// NewGeneratePreview truncates the rendered report to its first pages via
// the external typesetting collaborator. This is the last stage; the
// scheduler marks the report Done once it succeeds.
func NewGeneratePreview(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		preview, err := ectx.Render.Preview(ctx, s.Report, previewMaxPages)
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_preview: %w", err))
		}
		next := s.Clone()
		next.Preview = preview
		return fn.Ok(next)
	}
}
