package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNoIntakeForDate    = errors.New("no intake for date")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrHistoryNotFound    = errors.New("evaluation not found")
)

// NoIntakeError is returned when a business date has no intake records.
type NoIntakeError struct {
	Date string
}

func (e *NoIntakeError) Error() string {
	return fmt.Sprintf("No intake records found for %s.", e.Date)
}

func (e *NoIntakeError) Unwrap() error { return ErrNoIntakeForDate }

// ExternalCallError wraps a failed round-trip to the completion service.
type ExternalCallError struct {
	Err error
}

func (e *ExternalCallError) Error() string { return "external call failed: " + e.Err.Error() }

func (e *ExternalCallError) Unwrap() error { return e.Err }

// ResponseParseError carries the untouched reply that could not be used.
type ResponseParseError struct {
	Raw    string
	Detail string
}

func (e *ResponseParseError) Error() string {
	return "failed to parse evaluation response: " + e.Detail
}

// ValidationError maps field names to their problems.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns e only when it holds at least one problem.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
