// Package scheduler implements the Stage Scheduler (C8): the durable
// message-passing loop that advances a report through the stage graph one
// hop at a time. Grounded on engine/ingest.go's StartConsumer (retry-count
// header, DLQ subject, Deps-struct wiring), generalized from a single fixed
// pipeline to a dynamic lookup into stage.Registry keyed by
// core.Next(state.LastStage).
//
// Core NATS (unlike the AMQP broker spec.md assumes) has no broker-side
// redelivery of unacknowledged messages, so "the broker redelivers on
// failure" is modeled explicitly here: a failed stage republishes the
// original message to the same subject with an incremented X-Retry-Count
// header, and gives up to the dead-letter subject after MaxRetries.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/fn"
)

const (
	// ReportStatusSubject is the NATS subject carrying report_status
	// messages: the full persisted ReportState as its JSON payload.
	ReportStatusSubject = "report_status"
	// DLQSubject receives messages that failed MaxRetries times.
	DLQSubject = "report_status.dlq"
	// MaxRetries bounds the requeue-on-failure loop before a message is
	// moved to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// Registry is the stage lookup the scheduler dispatches into: the shape
// returned by stage.Registry(ectx), passed in rather than imported directly
// so the scheduler stays decoupled from the concrete stage set it drives.
type Registry = map[core.StageTag]fn.Stage[core.ReportState, core.ReportState]

// Deps holds the external collaborators the scheduler needs beyond the
// per-stage core.Context: the NATS connection itself (for requeue/DLQ
// publish) and an optional logger.
type Deps struct {
	NC       *nats.Conn
	Ectx     *core.Context
	Registry Registry
	Logger   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// dlqMessage is published to DLQSubject on repeated stage failure.
type dlqMessage struct {
	State   core.ReportState `json:"state"`
	Error   string            `json:"error"`
	Retries int               `json:"retries"`
}

// Advance resolves the stage that should run next from state.LastStage,
// invokes it under an OTel span, special-cases the Validation->Invalid
// fork, re-checks every core.ValidateAll invariant, and persists the
// result. It returns the updated state and whether a follow-up message
// should be published (false once the new LastStage is terminal).
func Advance(ctx context.Context, deps Deps, state core.ReportState) (core.ReportState, bool, error) {
	next, ok := core.Next(state.LastStage)
	if !ok {
		// Already terminal; nothing left to do.
		return state, false, nil
	}

	stageFn, ok := deps.Registry[next]
	if !ok {
		return state, false, fmt.Errorf("scheduler: no stage registered for %s", next)
	}

	traced := fn.TracedStage(string(next), stageFn)
	updated, err := traced(ctx, state).Unwrap()
	if err != nil {
		return state, false, err
	}

	resolvedNext := next
	if next == core.StageValidation {
		if updated.Validation == nil {
			return state, false, core.NewStageErrorf(core.StageValidation, core.KindInvariantViolation, "validation stage did not populate Validation")
		}
		if !updated.Validation.Valid {
			resolvedNext = core.StageInvalid
		}
	}
	// Success of the last stage completes the report: it is recorded as Done.
	if after, ok := core.Next(resolvedNext); ok && after == core.StageDone {
		resolvedNext = core.StageDone
	}

	updated.LastStage = resolvedNext

	if err := core.ValidateAll(updated); err != nil {
		return state, false, core.NewStageError(next, core.KindInvariantViolation, err)
	}

	if err := deps.Ectx.Store.Upsert(ctx, updated); err != nil {
		return state, false, fmt.Errorf("scheduler: persist state %s: %w", updated.ID, err)
	}

	return updated, !core.IsTerminal(resolvedNext), nil
}
