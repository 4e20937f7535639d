package schema

import (
	"errors"
	"fmt"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Dotted path of the field, e.g. "command.timeout"
	Reason string // Human-readable reason for failure
	Value  any    // The raw value that failed validation, if any
	Line   int    // 1-based source line, 0 when unknown
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	if e.Value != nil {
		msg = fmt.Sprintf("field %q: %s (got %q)", e.Key, e.Reason, fmt.Sprint(e.Value))
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is or wraps an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Collector accumulates validation failures.
type Collector struct {
	errs []error
}

// Add records a failure at path.
func (c *Collector) Add(path, reason string, value any, line int) {
	c.errs = append(c.errs, &ValidationError{Key: path, Reason: reason, Value: value, Line: line})
}

// Len returns the number of failures recorded so far.
func (c *Collector) Len() int { return len(c.errs) }

// Err returns an *AggregateError, or nil when nothing was recorded.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: c.errs}
}
