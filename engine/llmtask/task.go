// Package llmtask implements the LLM Task Runner (C1): it renders a prompt
// template, calls a model with or without a JSON output schema, parses and
// validates the result, and records cost-accounting info on every call.
package llmtask

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

// Mode selects whether a call returns raw text or a schema-validated
// structured payload.
type Mode int

const (
	ModeRaw Mode = iota
	ModeStructured
)

// Task renders a template, calls the model, and parses the result.
type Task struct {
	Template string
	Mode     Mode
	Schema   Schema // only used when Mode == ModeStructured
}

// New creates a raw-mode task.
func New(template string) Task {
	return Task{Template: template, Mode: ModeRaw}
}

// NewStructured creates a structured-mode task with the given output
// schema.
func NewStructured(template string, schema Schema) Task {
	return Task{Template: template, Mode: ModeStructured, Schema: schema}
}

// Outcome is the result of one successful task run: the raw text (raw mode)
// or decoded object (structured mode), plus the cost record to append to
// ReportState.GenerationResults.
type Outcome struct {
	Text    string
	Object  map[string]any
	Cost    core.GenerationResult
}

// RetryPolicy distinguishes the LLM call's failure modes: network errors
// retry with exponential backoff up to MaxAttempts; invalid JSON retries
// once then fails the stage; schema violations fail immediately (not
// retried, since retrying an already-schema-compliant-call-shape failure
// rarely helps).
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// PolicyFromConfig builds a RetryPolicy from the engine-wide Config.
func PolicyFromConfig(cfg core.Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.LLMMaxAttempts,
		InitialWait: cfg.LLMInitialWait,
		MaxWait:     cfg.LLMMaxWait,
	}
}

// Run renders the template against input, calls client, and parses the
// result according to Mode. apiTag is recorded on the returned cost record
// for costledger accounting.
func (t Task) Run(ctx context.Context, client core.LLMClient, apiTag string, input any, policy RetryPolicy) (Outcome, error) {
	prompt, err := Render(t.Template, input)
	if err != nil {
		return Outcome{}, fmt.Errorf("llmtask: %w", err)
	}

	var schemaBytes []byte
	if t.Mode == ModeStructured {
		schemaBytes, err = json.Marshal(t.Schema)
		if err != nil {
			return Outcome{}, fmt.Errorf("llmtask: marshal schema: %w", err)
		}
	}

	// Network-error retry: exponential backoff up to MaxAttempts.
	type genResult struct {
		text string
		cost core.GenerationResult
	}
	r := fn.Retry(ctx, fn.RetryOpts{
		MaxAttempts: policy.MaxAttempts,
		InitialWait: policy.InitialWait,
		MaxWait:     policy.MaxWait,
		Jitter:      true,
	}, func(ctx context.Context) fn.Result[genResult] {
		text, cost, err := client.Generate(ctx, prompt, schemaBytes)
		if err != nil {
			return fn.Err[genResult](fmt.Errorf("%w: %v", core.ErrUpstream, err))
		}
		cost.APITag = apiTag
		return fn.Ok(genResult{text: text, cost: cost})
	})
	gr, err := r.Unwrap()
	if err != nil {
		return Outcome{}, err
	}

	if t.Mode == ModeRaw {
		return Outcome{Text: gr.text, Cost: gr.cost}, nil
	}

	obj, err := t.parseStructured(gr.text)
	if err != nil {
		var violation *ErrSchemaViolation
		if errors.As(err, &violation) {
			// Schema violations fail the stage without retry.
			return Outcome{}, fmt.Errorf("%w: %v", core.ErrParse, err)
		}
		// Invalid JSON retries once, then fails the stage.
		text2, cost2, genErr := client.Generate(ctx, prompt, schemaBytes)
		if genErr != nil {
			return Outcome{}, fmt.Errorf("%w: retry after parse error: %v", core.ErrUpstream, genErr)
		}
		cost2.APITag = apiTag
		obj2, err2 := t.parseStructured(text2)
		if err2 != nil {
			return Outcome{}, fmt.Errorf("%w: %v", core.ErrParse, err2)
		}
		return Outcome{Text: text2, Object: obj2, Cost: cost2}, nil
	}
	return Outcome{Text: gr.text, Object: obj, Cost: gr.cost}, nil
}

func (t Task) parseStructured(generated string) (map[string]any, error) {
	payload, err := ExtractOutput(generated)
	if err != nil {
		return nil, err
	}
	obj, err := ParseAndValidate([]byte(payload), t.Schema)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
