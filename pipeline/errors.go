package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes a pipeline stage can surface.
// Callers are expected to test them with errors.Is.
var (
	// ErrSourceUnavailable indicates a fetch target could not be reached
	// (network failure, upstream API error).
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotFound indicates the fetch succeeded but no matching source exists.
	ErrNotFound = errors.New("not found")

	// ErrParseError indicates raw content whose structure could not be recovered.
	ErrParseError = errors.New("parse error")

	// ErrIncompatibleSchema indicates two record sets that do not share
	// comparable fields.
	ErrIncompatibleSchema = errors.New("incompatible schema")
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageCompare Stage = "compare"
)

// StageError wraps a stage failure with enough context for a user-facing
// message: the query that was running and the stage that failed.
type StageError struct {
	Stage Stage
	Query Query
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for query %q: %v", e.Stage, e.Query.Term, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage and query context.
func NewStageError(stage Stage, query Query, err error) *StageError {
	return &StageError{Stage: stage, Query: query, Err: err}
}
