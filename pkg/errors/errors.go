package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorKind classifies why a remote execution did not succeed.
type ErrorKind string

const (
	KindTransport      ErrorKind = "transport"
	KindRemoteFailure  ErrorKind = "remote_failure"
	KindTimeout        ErrorKind = "timeout"
	KindCancelled      ErrorKind = "cancelled"
	KindFileNotFound   ErrorKind = "file_not_found"
	KindFileRead       ErrorKind = "file_read"
	KindPartialFetch   ErrorKind = "partial_fetch"
	KindUnknownState   ErrorKind = "unknown_state"
	KindInvalidRequest ErrorKind = "invalid_request"
)

// ExecutionError is the tagged failure carried by execution results.
// Message is what users see; Err keeps the cause for errors.Is/As.
type ExecutionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewExecutionError constructs an ExecutionError. An empty message falls back to the cause's text.
func NewExecutionError(kind ErrorKind, message string, err error) *ExecutionError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &ExecutionError{Kind: kind, Message: message, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TemplateError indicates the bundled or overridden template set cannot be used.
type TemplateError struct {
	Path    string
	Message string
	Err     error
}

// NewTemplateError constructs a TemplateError for the given template location.
func NewTemplateError(path string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &TemplateError{Path: path, Message: message, Err: err}
}

func (e *TemplateError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("template error [%s]: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *TemplateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
