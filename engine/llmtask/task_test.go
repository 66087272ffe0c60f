package llmtask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finalyze/core/engine/core"
)

// fakeClient lets tests script a sequence of Generate responses.
type fakeClient struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeClient) Generate(_ context.Context, _ string, _ []byte) (string, core.GenerationResult, error) {
	if f.calls >= len(f.responses) {
		return "", core.GenerationResult{}, errors.New("fakeClient: no more scripted responses")
	}
	r := f.responses[f.calls]
	f.calls++
	if r.err != nil {
		return "", core.GenerationResult{}, r.err
	}
	return r.text, core.GenerationResult{PromptTokens: 10, GeneratedTokens: 5}, nil
}

func (f *fakeClient) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestTask_Run_Raw(t *testing.T) {
	task := New("Topic: {{.Topic}}")
	client := &fakeClient{responses: []fakeResponse{{text: "a generated report"}}}

	out, err := task.Run(context.Background(), client, "local_model", struct{ Topic string }{"Apple"}, fastPolicy())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Text != "a generated report" {
		t.Fatalf("out.Text = %q", out.Text)
	}
	if out.Cost.APITag != "local_model" {
		t.Fatalf("out.Cost.APITag = %q", out.Cost.APITag)
	}
}

func TestTask_Run_NetworkRetryThenSucceeds(t *testing.T) {
	task := New("x")
	client := &fakeClient{responses: []fakeResponse{
		{err: errors.New("connection reset")},
		{text: "ok"},
	}}

	out, err := task.Run(context.Background(), client, "local_model", nil, fastPolicy())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Text != "ok" {
		t.Fatalf("out.Text = %q", out.Text)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestTask_Run_Structured_OK(t *testing.T) {
	task := NewStructured("x", titleSchema())
	client := &fakeClient{responses: []fakeResponse{
		{text: "<Output>{\"title\": \"Apple in 2025\"}</Output>"},
	}}

	out, err := task.Run(context.Background(), client, "local_model", nil, fastPolicy())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Object["title"] != "Apple in 2025" {
		t.Fatalf("out.Object = %+v", out.Object)
	}
}

func TestTask_Run_Structured_InvalidJSONRetriesOnce(t *testing.T) {
	task := NewStructured("x", titleSchema())
	client := &fakeClient{responses: []fakeResponse{
		{text: "<Output>{not json</Output>"},
		{text: "<Output>{\"title\": \"recovered\"}</Output>"},
	}}

	out, err := task.Run(context.Background(), client, "local_model", nil, fastPolicy())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Object["title"] != "recovered" {
		t.Fatalf("out.Object = %+v", out.Object)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly 2 calls (one retry), got %d", client.calls)
	}
}

func TestTask_Run_Structured_InvalidJSONFailsAfterOneRetry(t *testing.T) {
	task := NewStructured("x", titleSchema())
	client := &fakeClient{responses: []fakeResponse{
		{text: "<Output>{still not json</Output>"},
		{text: "<Output>{still not json either</Output>"},
	}}

	_, err := task.Run(context.Background(), client, "local_model", nil, fastPolicy())
	if err == nil {
		t.Fatal("expected error after exhausting the single retry")
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", client.calls)
	}
}

func TestTask_Run_Structured_SchemaViolationFailsImmediately(t *testing.T) {
	task := NewStructured("x", titleSchema())
	client := &fakeClient{responses: []fakeResponse{
		{text: "<Output>{\"wrong_field\": \"x\"}</Output>"},
		{text: "<Output>{\"title\": \"should never be reached\"}</Output>"},
	}}

	_, err := task.Run(context.Background(), client, "local_model", nil, fastPolicy())
	if err == nil {
		t.Fatal("expected schema violation error")
	}
	if !errors.Is(err, core.ErrParse) {
		t.Fatalf("expected error wrapping core.ErrParse, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("schema violations must not be retried: expected 1 call, got %d", client.calls)
	}
}
