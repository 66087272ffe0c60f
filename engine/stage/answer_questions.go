package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/pkg/fn"
)

type answerQuestionsInput struct {
	Context    string
	Title      string
	Section    string
	SubSection string
	Question   string
}

// NewAnswerQuestions retrieves a per-question context from the vector index
// and asks the model to answer the question from it, for every
// (section, sub_section, question) leaf in the question tree.
func NewAnswerQuestions(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		if len(s.Sections) != len(s.SubSections) || len(s.Sections) != len(s.SubSectionQuestions) {
			return fn.Err[core.ReportState](invariantf(core.StageAnswerQuestions,
				"sections (%d), sub_sections (%d), sub_section_questions (%d) length mismatch",
				len(s.Sections), len(s.SubSections), len(s.SubSectionQuestions)))
		}

		task, err := promptTask(ctx, ectx, "answer-questions")
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		next := s.Clone()
		next.QuestionAnswerPairs = make([][][]core.QuestionAnswer, len(s.Sections))
		for i, section := range s.Sections {
			subSections := s.SubSections[i]
			questionSets := s.SubSectionQuestions[i]
			if len(subSections) != len(questionSets) {
				return fn.Err[core.ReportState](invariantf(core.StageAnswerQuestions,
					"section %q: sub_sections (%d) and sub_section_questions (%d) length mismatch",
					section, len(subSections), len(questionSets)))
			}
			next.QuestionAnswerPairs[i] = make([][]core.QuestionAnswer, len(subSections))

			for j, subSection := range subSections {
				questions := questionSets[j]
				pairs := make([]core.QuestionAnswer, len(questions))

				for k, question := range questions {
					queryVec, err := ectx.LLM.Embed(ctx, question)
					if err != nil {
						return fn.Err[core.ReportState](fmt.Errorf("stage answer_questions: embed question: %w", err))
					}
					chunks, err := ectx.Vectors.Search(ctx, s.ID, queryVec, ectx.Config.RetrievalTopK)
					if err != nil {
						return fn.Err[core.ReportState](fmt.Errorf("stage answer_questions: vector search: %w", err))
					}
					retrieved := assembleContext(chunks, ectx.Config.RetrievalContextBudget)
					if retrieved == "" {
						return fn.Err[core.ReportState](invariantf(core.StageAnswerQuestions,
							"empty context for report %s, question %q", s.ID, question))
					}

					input := answerQuestionsInput{
						Context:    retrieved,
						Title:      s.Title,
						Section:    section,
						SubSection: subSection,
						Question:   question,
					}
					out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), input, retryPolicy(ectx))
					if err != nil {
						return fn.Err[core.ReportState](fmt.Errorf("stage answer_questions: %q: %w", question, err))
					}
					pairs[k] = core.QuestionAnswer{Question: question, Answer: out.Text}
					next.AppendGenerationResult(out.Cost)
				}
				next.QuestionAnswerPairs[i][j] = pairs
			}
		}
		return fn.Ok(next)
	}
}

// assembleContext concatenates chunks, each bracketed by start/stop source
// markers, stopping as soon as the accumulated length reaches budget.
func assembleContext(chunks []core.ChunkEmbedding, budget int) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "# START - Source ID: %s\n%s\n# STOP - Source ID: %s\n", c.SourceID, c.Chunk, c.SourceID)
		if b.Len() >= budget {
			break
		}
	}
	return b.String()
}
