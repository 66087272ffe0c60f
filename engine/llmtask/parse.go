package llmtask

import (
	"fmt"
	"strings"
)

const (
	outputOpenSentinel  = "<Output>"
	outputCloseSentinel = "</Output>"
)

// ExtractOutput pulls the payload between the LAST <Output> and the
// matching </Output> sentinel out of generated text, stripping fenced-code
// markers. Grounded on original_source's Task::parse_output,
// which skips to the first line starting with <Output> and joins the rest;
// this Go port additionally anchors on the LAST occurrence so a model that
// echoes the prompt's own example <Output> blocks before its answer still
// yields the real answer.
func ExtractOutput(generated string) (string, error) {
	openIdx := strings.LastIndex(generated, outputOpenSentinel)
	if openIdx == -1 {
		return "", fmt.Errorf("llmtask: no %s sentinel found in generated output", outputOpenSentinel)
	}
	rest := generated[openIdx+len(outputOpenSentinel):]

	closeIdx := strings.Index(rest, outputCloseSentinel)
	body := rest
	if closeIdx != -1 {
		body = rest[:closeIdx]
	}

	body = strings.ReplaceAll(body, "```json", "")
	body = strings.ReplaceAll(body, "```", "")
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("llmtask: empty payload between %s/%s sentinels", outputOpenSentinel, outputCloseSentinel)
	}
	return body, nil
}
