package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a stage failed, per the error taxonomy.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindParse               ErrorKind = "parse"
	KindUpstream            ErrorKind = "upstream"
	KindTimeout             ErrorKind = "timeout"
	KindInvariantViolation  ErrorKind = "invariant_violation"
)

// Sentinel errors for callers that want errors.Is checks without unwrapping
// a StageError.
var (
	ErrNotFound           = errors.New("not found")
	ErrParse              = errors.New("parse error")
	ErrUpstream           = errors.New("upstream error")
	ErrTimeout            = errors.New("timeout")
	ErrInvariantViolation = errors.New("invariant violation")
)

func sentinelFor(k ErrorKind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindParse:
		return ErrParse
	case KindUpstream:
		return ErrUpstream
	case KindTimeout:
		return ErrTimeout
	case KindInvariantViolation:
		return ErrInvariantViolation
	default:
		return errors.New(string(k))
	}
}

// StageError wraps a failure from within a stage with the stage it
// occurred in and the taxonomy kind, so the scheduler can decide whether to
// retry, drop, or surface the error without inspecting error strings.
type StageError struct {
	Stage   StageTag
	Kind    ErrorKind
	Wrapped error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Kind, e.Wrapped)
}

func (e *StageError) Unwrap() []error {
	return []error{sentinelFor(e.Kind), e.Wrapped}
}

// NewStageError builds a StageError.
func NewStageError(stage StageTag, kind ErrorKind, wrapped error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Wrapped: wrapped}
}

// NewStageErrorf builds a StageError from a formatted message.
func NewStageErrorf(stage StageTag, kind ErrorKind, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: kind, Wrapped: fmt.Errorf(format, args...)}
}
