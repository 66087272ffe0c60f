package stage

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/engine/costledger"
	"github.com/finalyze/core/engine/llmtask"
	"github.com/finalyze/core/pkg/fn"
)

type classifyDataInput struct {
	Input string
}

var classifyDataSchema = llmtask.Schema{
	Properties: map[string]llmtask.Field{
		"title":       {Type: llmtask.TypeString, Required: true},
		"description": {Type: llmtask.TypeString, Required: true},
		"columns": {Type: llmtask.TypeArray, Required: true, Items: &llmtask.Schema{
			Properties: map[string]llmtask.Field{
				"title":       {Type: llmtask.TypeString, Required: true},
				"description": {Type: llmtask.TypeString, Required: true},
			},
		}},
	},
}

// previewRows is how many data rows (after the header) are rendered into
// the markdown preview sent to the model.
const previewRows = 5

// NewClassifyData classifies each extracted CSV table: it renders a short
// markdown preview, asks the model for a title, description, and
// per-column descriptions, then stitches those descriptions back onto the
// table's full column values (every row, not just the preview).
func NewClassifyData(ectx *core.Context) fn.Stage[core.ReportState, core.ReportState] {
	return func(ctx context.Context, s core.ReportState) fn.Result[core.ReportState] {
		task, err := structuredTask(ctx, ectx, "data-classifier", classifyDataSchema)
		if err != nil {
			return fn.Err[core.ReportState](err)
		}

		next := s.Clone()
		for i, csvSrc := range s.CSVSources {
			header, rows, err := parseCSV(csvSrc)
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage classify_data: table %d: %w", i, err))
			}
			preview := markdownPreview(header, rows, previewRows)

			out, err := task.Run(ctx, ectx.LLM, string(costledger.APILocalModel), classifyDataInput{Input: preview}, retryPolicy(ectx))
			if err != nil {
				return fn.Err[core.ReportState](fmt.Errorf("stage classify_data: table %d: %w", i, err))
			}
			title, _ := out.Object["title"].(string)
			description, _ := out.Object["description"].(string)
			columnDescs, err := columnDescriptions(out.Object["columns"])
			if err != nil {
				return fn.Err[core.ReportState](invariantf(core.StageClassifyData, "table %d columns: %v", i, err))
			}

			columns := make([]core.DataColumn, len(header))
			for c, name := range header {
				values := make([]string, len(rows))
				for r, row := range rows {
					if c < len(row) {
						values[r] = row[c]
					}
				}
				columns[c] = core.DataColumn{Name: name, Description: columnDescs[name], Values: values}
			}

			next.ClassifiedDataSources = append(next.ClassifiedDataSources, core.ClassifiedDataSource{
				Title:       title,
				Description: description,
				Columns:     columns,
			})
			next.AppendGenerationResult(out.Cost)
		}
		return fn.Ok(next)
	}
}

func parseCSV(data string) (header []string, rows [][]string, err error) {
	r := csv.NewReader(strings.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty table")
	}
	return records[0], records[1:], nil
}

func markdownPreview(header []string, rows [][]string, limit int) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for i, row := range rows {
		if i >= limit {
			break
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

// columnDescriptions maps each decoded {title, description} entry back to
// its column name; a column the model didn't mention gets an empty
// description rather than failing the stage.
func columnDescriptions(v any) (map[string]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make(map[string]string, len(raw))
	for i, colAny := range raw {
		col, ok := colAny.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column %d: expected object, got %T", i, colAny)
		}
		title, _ := col["title"].(string)
		desc, _ := col["description"].(string)
		out[title] = desc
	}
	return out, nil
}
