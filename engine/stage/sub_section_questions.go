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

type sectionWithSubSections struct {
	Section     string   `json:"section"`
	SubSections []string `json:"sub_sections"`
}

type subSectionQuestionsBody struct {
	Title    string                   `json:"title"`
	Date     string                   `json:"date"`
	Sections []sectionWithSubSections `json:"sections"`
}

type subSectionQuestionsInput struct {
	Input string
}

var subSectionQuestionsSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"sections": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
			Properties: map[string]llmtask.Field{
				"section": {Type: llmtask.TypeString, Required: true},
				"sub_sections": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
					Properties: map[string]llmtask.Field{
						"sub_section": {Type: llmtask.TypeString, Required: true},
						"questions": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
							Properties: map[string]llmtask.Field{},
						}},
					},
				}},
			},
		}},
	},
}

// NewGenerateSubSectionQuestions asks the model, in a single call, for the
// research questions each sub-section needs answered. The whole section/
// sub-section tree is serialized to JSON and passed as one string input,
// mirroring how the prompt was authored against a pretty-printed payload.
func NewGenerateSubSectionQuestions(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		if len(s.Sections) != len(s.SubSections) {
			return fn.Err[core.ReportState](invariantf(core.StageGenerateSubSectionQuestions,
				"sections (%d) and sub_sections (%d) length mismatch", len(s.Sections), len(s.SubSections)))
		}

		body := subSectionQuestionsBody{
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
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_sub_section_questions: marshal input: %w", err))
		}

		task, err := structuredTask(ctx, ectx, "sub-section-questions", subSectionQuestionsSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}
		out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), subSectionQuestionsInput{Input: string(raw)}, retryPolicy(ectx))
		if err != nil {
			return fn.Err[core.ReportState](fmt.Errorf("stage generate_sub_section_questions: %w", err))
		}

		sections, err := questionTree(out.Object["sections"])
		if err != nil {
			return fn.Err[core.ReportState](invariantf(core.StageGenerateSubSectionQuestions, "sections: %v", err))
		}

		next := s.Clone()
		next.SubSectionQuestions = sections
		next.AppendGenerationResult(out.Cost)
		return fn.Ok(next)
	}
}

// questionTree coerces the decoded {section, sub_sections: [{sub_section,
// questions}]} array into [section][sub_section][question].
func questionTree(v any) ([][][]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([][][]string, len(raw))
	for i, secAny := range raw {
		sec, ok := secAny.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("section %d: expected object, got %T", i, secAny)
		}
		subAny, ok := sec["sub_sections"].([]any)
		if !ok {
			return nil, fmt.Errorf("section %d: expected sub_sections array, got %T", i, sec["sub_sections"])
		}
		subs := make([][]string, len(subAny))
		for j, ssAny := range subAny {
			ss, ok := ssAny.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("section %d sub_section %d: expected object, got %T", i, j, ssAny)
			}
			questions, err := stringList(ss["questions"])
			if err != nil {
				return nil, fmt.Errorf("section %d sub_section %d: questions: %w", i, j, err)
			}
			subs[j] = questions
		}
		out[i] = subs
	}
	return out, nil
}
