package core

import "time"

// ValidationResult is the output of the Validation stage.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// URLContent is a raw or normalized document keyed by its source URL. Used
// for both html_sources and md_sources.
type URLContent struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Source is a scraped, classified document with a per-report assigned id
// (of the form "website<index>").
type Source struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Date            string    `json:"date"`
	PublishedAfter  bool      `json:"published_after"`
	Content         string    `json:"content"`
}

// Chunk is a retrievable fragment of a source's content.
type Chunk struct {
	SourceID string `json:"source_id"`
	Content  string `json:"content"`
}

// ChunkEmbedding pairs a chunk with its embedding vector, as stored in the
// vector index.
type ChunkEmbedding struct {
	SourceID  string    `json:"source_id"`
	Chunk     string    `json:"chunk"`
	Embedding []float32 `json:"embedding"`
}

// QuestionAnswer is one retrieval-augmented answer for a sub-section
// question.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DataColumn is one column of a classified tabular data source.
type DataColumn struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Values      []string `json:"values"`
}

// ClassifiedDataSource is a CSV source annotated with a title, description,
// and per-column descriptions.
type ClassifiedDataSource struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Columns     []DataColumn `json:"columns"`
}

// VisualType is the kind of visualization chosen for a data source.
type VisualType string

const (
	VisualLine  VisualType = "line"
	VisualBar   VisualType = "bar"
	VisualPie   VisualType = "pie"
	VisualStock VisualType = "stock"
	VisualTable VisualType = "table"
)

// Visual records which data source got which visualization type.
type Visual struct {
	DataSourceIndex int        `json:"data_source_index"`
	Type            VisualType `json:"type"`
}

// Chart is a rendered chart image.
type Chart struct {
	VisualIndex int    `json:"visual_index"`
	Path        string `json:"path"`
}

// Table is a rendered table spec (rows are already string-formatted cells).
type Table struct {
	VisualIndex int        `json:"visual_index"`
	Title       string     `json:"title"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
}

// VisualPosition records where a chart or table should be inserted relative
// to a sub-section's content.
type VisualPosition struct {
	SectionIndex    int `json:"section_index"`
	SubSectionIndex int `json:"sub_section_index"`
	AfterParagraph  int `json:"after_paragraph"`
}

// GenerationResult is a per-LLM-call cost record, appended to
// ReportState.GenerationResults by every caller of the LLM task runner.
type GenerationResult struct {
	APITag          string        `json:"api_tag"`
	PromptTokens    int           `json:"prompt_tokens"`
	GeneratedTokens int           `json:"generated_tokens"`
	CacheReadTokens int           `json:"cache_read_tokens"`
	CacheWriteTokens int          `json:"cache_write_tokens"`
	Duration        time.Duration `json:"duration"`
}

// ReportState is the single message payload that grows monotonically stage
// by stage. Every field except ID, UserInput, LastStage, and
// GenerationResults transitions exactly once from empty to populated;
// subsequent stages must not mutate populated fields. This is deliberately
// one flat struct with every field always present (nil/zero until
// populated) rather than a union of stage-specific types, per the
// monotonic-population invariant: later stages read fields written by many
// earlier stages, which a sum type cannot express without duplicating every
// prior field at every later variant.
type ReportState struct {
	ID        string   `json:"id"`
	UserInput string   `json:"user_input"`
	LastStage StageTag `json:"last_stage"`

	Validation *ValidationResult `json:"validation,omitempty"`

	Title    string   `json:"title,omitempty"`
	Sections []string `json:"sections,omitempty"`

	// SubSections[i] holds the sub-section names for Sections[i].
	SubSections [][]string `json:"sub_sections,omitempty"`

	Searches  []string `json:"searches,omitempty"`
	SearchURLs []string `json:"search_urls,omitempty"`

	HTMLSources []URLContent `json:"html_sources,omitempty"`
	MDSources   []URLContent `json:"md_sources,omitempty"`

	Sources []Source `json:"sources,omitempty"`
	Chunks  []Chunk  `json:"chunks,omitempty"`

	ChunkEmbeddings []ChunkEmbedding `json:"chunk_embeddings,omitempty"`

	// SubSectionQuestions[i][j] holds the questions for section i,
	// sub-section j.
	SubSectionQuestions [][][]string `json:"sub_section_questions,omitempty"`

	// QuestionAnswerPairs[i][j] mirrors SubSectionQuestions' shape with
	// {question, answer} leaves.
	QuestionAnswerPairs [][][]QuestionAnswer `json:"question_answer_pairs,omitempty"`

	// SubSectionContents[i][j] is the synthesized paragraph for section i,
	// sub-section j.
	SubSectionContents [][]string `json:"sub_section_contents,omitempty"`

	CSVSources             []string               `json:"csv_sources,omitempty"`
	ClassifiedDataSources  []ClassifiedDataSource `json:"classified_data_sources,omitempty"`

	Visuals        []Visual         `json:"visuals,omitempty"`
	Charts         []Chart          `json:"charts,omitempty"`
	Tables         []Table          `json:"tables,omitempty"`
	ChartPositions []VisualPosition `json:"chart_positions,omitempty"`
	TablePositions []VisualPosition `json:"table_positions,omitempty"`

	Report  string `json:"report,omitempty"`
	Preview string `json:"preview,omitempty"`

	GenerationResults []GenerationResult `json:"generation_results,omitempty"`
}

// Clone returns a deep-enough copy of s for idempotent stage re-execution:
// every slice/map field is copied so a stage mutating its working copy
// cannot corrupt the persisted state if the stage later fails.
func (s ReportState) Clone() ReportState {
	out := s
	out.Sections = append([]string(nil), s.Sections...)
	out.Searches = append([]string(nil), s.Searches...)
	out.SearchURLs = append([]string(nil), s.SearchURLs...)
	out.HTMLSources = append([]URLContent(nil), s.HTMLSources...)
	out.MDSources = append([]URLContent(nil), s.MDSources...)
	out.Sources = append([]Source(nil), s.Sources...)
	out.Chunks = append([]Chunk(nil), s.Chunks...)
	out.ChunkEmbeddings = append([]ChunkEmbedding(nil), s.ChunkEmbeddings...)
	out.CSVSources = append([]string(nil), s.CSVSources...)
	out.ClassifiedDataSources = append([]ClassifiedDataSource(nil), s.ClassifiedDataSources...)
	out.Visuals = append([]Visual(nil), s.Visuals...)
	out.Charts = append([]Chart(nil), s.Charts...)
	out.Tables = append([]Table(nil), s.Tables...)
	out.ChartPositions = append([]VisualPosition(nil), s.ChartPositions...)
	out.TablePositions = append([]VisualPosition(nil), s.TablePositions...)
	out.GenerationResults = append([]GenerationResult(nil), s.GenerationResults...)

	out.SubSections = make([][]string, len(s.SubSections))
	for i, ss := range s.SubSections {
		out.SubSections[i] = append([]string(nil), ss...)
	}
	out.SubSectionQuestions = make([][][]string, len(s.SubSectionQuestions))
	for i, sec := range s.SubSectionQuestions {
		out.SubSectionQuestions[i] = make([][]string, len(sec))
		for j, qs := range sec {
			out.SubSectionQuestions[i][j] = append([]string(nil), qs...)
		}
	}
	out.QuestionAnswerPairs = make([][][]QuestionAnswer, len(s.QuestionAnswerPairs))
	for i, sec := range s.QuestionAnswerPairs {
		out.QuestionAnswerPairs[i] = make([][]QuestionAnswer, len(sec))
		for j, qas := range sec {
			out.QuestionAnswerPairs[i][j] = append([]QuestionAnswer(nil), qas...)
		}
	}
	out.SubSectionContents = make([][]string, len(s.SubSectionContents))
	for i, sc := range s.SubSectionContents {
		out.SubSectionContents[i] = append([]string(nil), sc...)
	}
	return out
}

// AppendGenerationResult records a cost record on the state. Unlike the
// other fields, GenerationResults accumulates across every stage that calls
// the LLM, so it is exempt from the "populate exactly once" invariant.
func (s *ReportState) AppendGenerationResult(r GenerationResult) {
	s.GenerationResults = append(s.GenerationResults, r)
}
