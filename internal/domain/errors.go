package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRecord is the base of every validation failure.
	ErrInvalidRecord = errors.New("invalid service record")

	// ErrDuplicateID is returned when two records share the same id.
	ErrDuplicateID = errors.New("duplicate service id")

	// ErrTooManyProviders is returned when the catalog names more distinct
	// providers than the 8-bit provider index can address.
	ErrTooManyProviders = errors.New("too many distinct providers")

	// ErrInvariant marks internal defects: a record passed validation but
	// could not be compiled. It must never be treated as a record error.
	ErrInvariant = errors.New("internal invariant violated")
)

// RecordError attributes one failure to one record.
type RecordError struct {
	RecordID string
	Source   string
	Err      error
}

func (e RecordError) Error() string {
	id := e.RecordID
	if id == "" {
		id = "<unknown>"
	}
	if e.Source != "" {
		return fmt.Sprintf("%s (%s): %v", id, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %v", id, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// CompileError is returned when at least one record blocks compilation.
// Nothing is emitted alongside it.
type CompileError struct {
	Failures []RecordError
}

func (e *CompileError) Error() string {
	if len(e.Failures) == 1 {
		return "catalog compilation failed: " + e.Failures[0].Error()
	}
	records := make(map[string]struct{}, len(e.Failures))
	for _, f := range e.Failures {
		records[f.RecordID] = struct{}{}
	}
	return fmt.Sprintf("catalog compilation failed: %d errors in %d records", len(e.Failures), len(records))
}

// Unwrap exposes every failure to errors.Is / errors.As.
func (e *CompileError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Lines renders one line per failure, in order.
func (e *CompileError) Lines() []string {
	lines := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		lines[i] = f.Error()
	}
	return lines
}

// InvariantError reports a compiler defect for a specific record.
type InvariantError struct {
	Op       string
	RecordID string
	Detail   string
}

func (e *InvariantError) Error() string {
	var b strings.Builder
	b.WriteString(ErrInvariant.Error())
	b.WriteString(": ")
	b.WriteString(e.Op)
	if e.RecordID != "" {
		b.WriteString(" ")
		b.WriteString(e.RecordID)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// NewInvariantError builds an InvariantError with a formatted detail.
func NewInvariantError(op, recordID, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, RecordID: recordID, Detail: fmt.Sprintf(format, args...)}
}
