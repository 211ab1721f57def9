package treelai

import (
	"errors"
	"fmt"
)

// ErrorKind names a client-input failure class.
type ErrorKind string

const (
	InvalidJSON             ErrorKind = "InvalidJSON"
	InvalidYAML             ErrorKind = "InvalidYAML"
	UnsupportedExportFormat ErrorKind = "UnsupportedExportFormat"
	MissingOverrideText     ErrorKind = "MissingOverrideText"
	UnsupportedNodeType     ErrorKind = "UnsupportedNodeType"
	EmptyDocument           ErrorKind = "EmptyDocument"
)

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ParseError indicates the input document could not be parsed.
type ParseError struct {
	Kind  ErrorKind // InvalidJSON or InvalidYAML
	Cause error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("parse error (%s)", e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is matches another *ParseError with the same kind, so callers can write
// errors.Is(err, &ParseError{Kind: InvalidYAML}).
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

// ValidationError indicates a well-formed document or request that cannot be processed.
type ValidationError struct {
	Kind    ErrorKind
	Path    string // Dotted path of the offending node, if any
	Message string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error (%s)", e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches another *ValidationError with the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// LeafError indicates the leaf translator failed for one leaf.
type LeafError struct {
	Path  string
	Cause error
}

func (e *LeafError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("leaf translation failed: %v", e.Cause)
	}
	return fmt.Sprintf("leaf translation failed at %q: %v", e.Path, e.Cause)
}

func (e *LeafError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation backend failure (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsClientError reports whether err was caused by the caller's input
// rather than by the translation backend.
func IsClientError(err error) bool {
	var parseErr *ParseError
	var validationErr *ValidationError
	return errors.As(err, &parseErr) || errors.As(err, &validationErr)
}

// KindOf returns the ErrorKind carried by err, or "" when it has none.
func KindOf(err error) ErrorKind {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Kind
	}
	return ""
}
