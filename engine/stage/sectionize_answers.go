package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/pkg/fn"
)

type sectionizeAnswersInput struct {
	Input string
}

// NewSectionizeAnswers concatenates each sub-section's Q&A pairs into a
// bulleted markdown block and asks the model to rewrite it as one coherent
// paragraph.
func NewSectionizeAnswers(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := promptTask(ctx, ectx, "sectionize-questions")
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		next := s.Clone()
		next.SubSectionContents = make([][]string, len(s.QuestionAnswerPairs))
		for i, section := range s.QuestionAnswerPairs {
			contents := make([]string, len(section))
			for j, pairs := range section {
				var block strings.Builder
				for _, p := range pairs {
					fmt.Fprintf(&block, "- %s\n  %s\n", p.Question, p.Answer)
				}
				out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), sectionizeAnswersInput{Input: block.String()}, retryPolicy(ectx))
				if err != nil {
					return fn.Err[core.ReportState](fmt.Errorf("stage sectionize_answers: section %d sub_section %d: %w", i, j, err))
				}
				contents[j] = out.Text
				next.AppendGenerationResult(out.Cost)
			}
			next.SubSectionContents[i] = contents
		}
		return fn.Ok(next)
	}
}
