// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Failure kinds. Per-item failures of these kinds are absorbed and logged;
// a stage that cannot continue records one of them in a StageError.
var (
	ErrSearchFailure   = errors.New("search failure")
	ErrFetchFailure    = errors.New("fetch failure")
	ErrExtractionParse = errors.New("extraction parse failure")
	ErrNoCandidates    = errors.New("no relevant candidates")
	ErrNoFacts         = errors.New("no facts found")
	ErrDateUnparsable  = errors.New("date unparsable")
	ErrCancelled       = errors.New("run cancelled")
)

// StageError is the terminal failure of a pipeline stage. Kind is one of the
// sentinel errors above and is reachable through errors.Is.
type StageError struct {
	Stage string
	Kind  error
	Msg   string
}

// NewStageError builds a StageError with a formatted message.
func NewStageError(stage string, kind error, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *StageError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Stage, e.Kind, e.Msg)
}

func (e *StageError) Unwrap() error { return e.Kind }
