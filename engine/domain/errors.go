package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure kinds the pipeline distinguishes.
var (
	// ErrMalformedInput marks a request payload that is not valid structured data.
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingField marks a required note field absent during ingestion.
	// One missing field aborts the whole batch.
	ErrMissingField = errors.New("missing required field")
	// ErrChartNotFound marks a coding request for a chart with no stored notes.
	// Distinct from a successful result with unmatched notes.
	ErrChartNotFound = errors.New("chart not found")
	// ErrUpstreamUnavailable marks a semantic index or catalog load failure.
	// Never retried here; the caller owns retry policy.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// FieldError wraps ErrMissingField with the offending field and the position of
// the note within the submitted batch.
type FieldError struct {
	Field     string
	NoteIndex int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("note %d: %s: %s", e.NoteIndex, ErrMissingField, e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// NewFieldError creates a FieldError for the given field and batch position.
func NewFieldError(field string, noteIndex int) *FieldError {
	return &FieldError{Field: field, NoteIndex: noteIndex}
}
