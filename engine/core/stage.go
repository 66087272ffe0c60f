// Package core defines the shared vocabulary of the report-generation
// workflow engine: the report state, the stage graph, configuration, and
// the collaborator handles stages are given to do their work.
package core

// StageTag names one node in the fixed stage graph.
type StageTag string

// The closed, ordered set of stage tags, plus the terminal Invalid fork.
const (
	StagePending                     StageTag = "Pending"
	StageValidation                  StageTag = "Validation"
	StageGenerateTitle                StageTag = "GenerateTitle"
	StageGenerateSectionNames         StageTag = "GenerateSectionNames"
	StageGenerateSubSections          StageTag = "GenerateSubSections"
	StageGenerateSubSectionQuestions  StageTag = "GenerateSubSectionQuestions"
	StageGenerateSearchQueries        StageTag = "GenerateSearchQueries"
	StageRunSearch                    StageTag = "RunSearch"
	StageScrapePages                  StageTag = "ScrapePages"
	StageExtractContent               StageTag = "ExtractContent"
	StageFormatContent                StageTag = "FormatContent"
	StageClassifySources              StageTag = "ClassifySources"
	StageExtractData                  StageTag = "ExtractData"
	StageClassifyData                 StageTag = "ClassifyData"
	StageChunkContent                 StageTag = "ChunkContent"
	StageIndexChunks                  StageTag = "IndexChunks"
	StageAnswerQuestions               StageTag = "AnswerQuestions"
	StageSectionizeAnswers            StageTag = "SectionizeAnswers"
	StageIdentifyVisuals              StageTag = "IdentifyVisuals"
	StageGenerateVisuals              StageTag = "GenerateVisuals"
	StageIdentifyVisualInsertions     StageTag = "IdentifyVisualInsertions"
	StageRender                       StageTag = "Render"
	StageGeneratePreview              StageTag = "GeneratePreview"
	StageDone                         StageTag = "Done"

	// StageInvalid is the terminal fork reached from Validation when the
	// user input is rejected. It is not part of the linear chain.
	StageInvalid StageTag = "Invalid"
)

// stageChain is the fixed linear ordering of the stage graph, excluding the
// Validation->Invalid fork which is handled as a special case by the
// scheduler (see engine/scheduler).
var stageChain = []StageTag{
	StagePending,
	StageValidation,
	StageGenerateTitle,
	StageGenerateSectionNames,
	StageGenerateSubSections,
	StageGenerateSubSectionQuestions,
	StageGenerateSearchQueries,
	StageRunSearch,
	StageScrapePages,
	StageExtractContent,
	StageFormatContent,
	StageClassifySources,
	StageExtractData,
	StageClassifyData,
	StageChunkContent,
	StageIndexChunks,
	StageAnswerQuestions,
	StageSectionizeAnswers,
	StageIdentifyVisuals,
	StageGenerateVisuals,
	StageIdentifyVisualInsertions,
	StageRender,
	StageGeneratePreview,
	StageDone,
}

var stageOrder = func() map[StageTag]int {
	m := make(map[StageTag]int, len(stageChain))
	for i, s := range stageChain {
		m[s] = i
	}
	return m
}()

// Order returns the stage's position in the linear chain, or -1 if the tag
// is Invalid or otherwise not part of the chain.
func Order(s StageTag) int {
	if o, ok := stageOrder[s]; ok {
		return o
	}
	return -1
}

// Next returns the stage that follows s in the chain, and false if s is the
// terminal stage (Done) or not part of the chain (e.g. Invalid).
func Next(s StageTag) (StageTag, bool) {
	o, ok := stageOrder[s]
	if !ok {
		return "", false
	}
	if o+1 >= len(stageChain) {
		return "", false
	}
	return stageChain[o+1], true
}

// IsTerminal reports whether s has no successor stage.
func IsTerminal(s StageTag) bool {
	return s == StageDone || s == StageInvalid
}

// Monotonic reports whether the transition from before to after respects
// the monotonicity invariant: after is exactly one step past before in the
// chain, or after is one of the terminal tags {Invalid, Done}.
func Monotonic(before, after StageTag) bool {
	if after == StageInvalid || after == StageDone {
		return true
	}
	bo, ok := stageOrder[before]
	if !ok {
		return false
	}
	ao, ok := stageOrder[after]
	if !ok {
		return false
	}
	return ao == bo+1
}
