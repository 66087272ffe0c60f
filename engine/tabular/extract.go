// Package tabular implements the Tabular Extractor (C6): scans markdown
// text for table blocks and emits each as a CSV-shaped string, one physical
// line per row (`|a|b|\n|---|---|\n|1|2|` -> `a,b\n1,2\n`). A line-oriented
// scanner is used rather than a full markdown AST (e.g. a goldmark
// dependency) because md_sources is markdown text, not a DOM — see
// DESIGN.md for the stdlib justification.
package tabular

import (
	"fmt"
	"regexp"
	"strings"
)

// separatorCellPattern matches one GFM table-separator cell, e.g. "---",
// ":--", "--:", ":-:".
var separatorCellPattern = regexp.MustCompile(`^:?-+:?$`)

var emphasisPattern = regexp.MustCompile(`\*\*\*([^*]+)\*\*\*|\*\*([^*]+)\*\*|\*([^*]+)\*|___([^_]+)___|__([^_]+)__|_([^_]+)_`)

// ErrMalformedTable reports a table row whose shape does not match the
// header: a row whose cell count differs from the header's is fatal.
type ErrMalformedTable struct {
	Line int
	Msg  string
}

func (e *ErrMalformedTable) Error() string {
	return fmt.Sprintf("tabular: malformed table at line %d: %s", e.Line, e.Msg)
}

// Extract scans md for table blocks and returns one CSV-shaped string per
// table, in document order.
func Extract(md string) ([]string, error) {
	lines := strings.Split(md, "\n")
	var tables []string

	i := 0
	for i < len(lines) {
		if !looksLikeRow(lines[i]) || i+1 >= len(lines) || !isSeparatorRow(lines[i+1]) {
			i++
			continue
		}

		header := splitRow(lines[i])
		width := len(header)
		var rows [][]string
		rows = append(rows, mapCells(header))

		j := i + 2
		for j < len(lines) && looksLikeRow(lines[j]) {
			cells := splitRow(lines[j])
			if len(cells) != width {
				return nil, &ErrMalformedTable{Line: j + 1, Msg: fmt.Sprintf("row has %d cells, header has %d", len(cells), width)}
			}
			rows = append(rows, mapCells(cells))
			j++
		}

		tables = append(tables, renderCSV(rows))
		i = j
	}

	return tables, nil
}

func looksLikeRow(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "|") || (strings.Contains(t, "|") && t != "")
}

func isSeparatorRow(line string) bool {
	cells := splitRow(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorCellPattern.MatchString(strings.TrimSpace(c)) {
			return false
		}
	}
	return true
}

// splitRow splits one "|"-delimited row into cells, trimming a single
// leading/trailing empty cell produced by a leading/trailing pipe.
func splitRow(line string) []string {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "|")
	t = strings.TrimSuffix(t, "|")
	parts := strings.Split(t, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// mapCells flattens each cell's inline markdown emphasis/strong markup down
// to its leaf text content, preserving internal whitespace.
func mapCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = flattenInline(c)
	}
	return out
}

// flattenInline strips emphasis/strong markdown delimiters, keeping the
// enclosed text: a cell's value is the concatenated text of its leaf
// text/emphasis/strong children.
func flattenInline(cell string) string {
	for {
		replaced := emphasisPattern.ReplaceAllStringFunc(cell, func(m string) string {
			groups := emphasisPattern.FindStringSubmatch(m)
			for _, g := range groups[1:] {
				if g != "" {
					return g
				}
			}
			return m
		})
		if replaced == cell {
			return replaced
		}
		cell = replaced
	}
}

// renderCSV joins rows into a CSV-shaped string, one physical line per row,
// quoting any cell that contains a comma.
func renderCSV(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		quoted := make([]string, len(row))
		for i, cell := range row {
			if strings.Contains(cell, ",") {
				cell = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
			}
			quoted[i] = cell
		}
		b.WriteString(strings.Join(quoted, ","))
		b.WriteString("\n")
	}
	return b.String()
}
