package llmtask

import (
	"bytes"
	"fmt"
	"text/template"
)

// Render substitutes named placeholders in tmpl with fields from input,
// using Go's stdlib text/template ({{.Field}} syntax) as the idiomatic
// replacement for the original implementation's Handlebars templates — see
// DESIGN.md for why no third-party templating library is pulled in.
func Render(tmpl string, input any) (string, error) {
	t, err := template.New("task").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("llmtask: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("llmtask: render template: %w", err)
	}
	return buf.String(), nil
}
