// Package stage implements the 22 stage functions of the report-generation
// workflow graph (C7), one file per stage mirroring
// original_source/backend/src/workflow/job's one-file-per-job layout. Every
// stage has the shape `New<Name>(ectx *core.Context) fn.Stage[core.ReportState,
// core.ReportState]`, grounded on the dependency-closure constructors in
// engine/ingest.go (NewEmbed, NewStore) rather than a package-level
// function, so each stage closes over the collaborators it needs instead of
// reaching for a global.
package stage

import (
	"context"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

// Registry builds every stage function bound to ectx, keyed by the stage it
// implements. StageInvalid has no entry: the Invalid fork is a scheduler
// decision based on Validation's output, not a stage of its own.
func Registry(ectx *core.Context) map[core.StageTag]fn.Stage[core.ReportState, core.ReportState] {
	return map[core.StageTag]fn.Stage[core.ReportState, core.ReportState]{
		core.StageValidation:                  NewValidation(ectx),
		core.StageGenerateTitle:                NewGenerateTitle(ectx),
		core.StageGenerateSectionNames:         NewGenerateSectionNames(ectx),
		core.StageGenerateSubSections:          NewGenerateSubSections(ectx),
		core.StageGenerateSubSectionQuestions:  NewGenerateSubSectionQuestions(ectx),
		core.StageGenerateSearchQueries:        NewGenerateSearchQueries(ectx),
		core.StageRunSearch:                    NewRunSearch(ectx),
		core.StageScrapePages:                  NewScrapePages(ectx),
		core.StageExtractContent:               NewExtractContent(ectx),
		core.StageFormatContent:                NewFormatContent(ectx),
		core.StageClassifySources:              NewClassifySources(ectx),
		core.StageExtractData:                  NewExtractData(ectx),
		core.StageClassifyData:                 NewClassifyData(ectx),
		core.StageChunkContent:                 NewChunkContent(ectx),
		core.StageIndexChunks:                  NewIndexChunks(ectx),
		core.StageAnswerQuestions:              NewAnswerQuestions(ectx),
		core.StageSectionizeAnswers:            NewSectionizeAnswers(ectx),
		core.StageIdentifyVisuals:              NewIdentifyVisuals(ectx),
		core.StageGenerateVisuals:              NewGenerateVisuals(ectx),
		core.StageIdentifyVisualInsertions:     NewIdentifyVisualInsertions(ectx),
		core.StageRender:                       NewRender(ectx),
		core.StageGeneratePreview:              NewGeneratePreview(ectx),
	}
}

// promptTask loads the named prompt template and builds a raw-mode task.
func promptTask(ctx context.Context, ectx *core.Context, key string) (llmtask.Task, error) {
	tmpl, err := ectx.Prompts.Prompt(ctx, key)
	if err != nil {
		return llmtask.Task{}, fmt.Errorf("stage: load prompt %q: %w", key, err)
	}
	return llmtask.New(tmpl), nil
}

// structuredTask loads the named prompt template and builds a
// structured-mode task validated against schema.
func structuredTask(ctx context.Context, ectx *core.Context, key string, schema llmtask.Schema) (llmtask.Task, error) {
	tmpl, err := ectx.Prompts.Prompt(ctx, key)
	if err != nil {
		return llmtask.Task{}, fmt.Errorf("stage: load prompt %q: %w", key, err)
	}
	return llmtask.NewStructured(tmpl, schema), nil
}

// retryPolicy builds the shared LLM retry policy from the engine config.
func retryPolicy(ectx *core.Context) llmtask.RetryPolicy {
	return llmtask.PolicyFromConfig(ectx.Config)
}

// invariantf builds a StageError of kind InvariantViolation.
func invariantf(s core.StageTag, format string, args ...any) error {
	return core.NewStageErrorf(s, core.KindInvariantViolation, format, args...)
}
