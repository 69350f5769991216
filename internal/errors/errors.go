// Package errors defines the typed failures surfaced by tool wrappers
// and the page-list operations.
package errors

import "fmt"

// Kind classifies a failure.
type Kind string

const (
	KindTransport  Kind = "TRANSPORT"  // network failure, timeout, HTTP status >= 400
	KindDecode     Kind = "DECODE"     // response body not valid JSON/TSV/expected shape
	KindTool       Kind = "TOOL"       // the remote service reported a non-success status
	KindValidation Kind = "VALIDATION" // bad input before any request was made
)

// ToolError is a structured error with a kind and an optional cause.
type ToolError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewTransport creates a transport-kind error.
func NewTransport(msg string, err error) *ToolError {
	return &ToolError{Kind: KindTransport, Message: msg, Err: err}
}

// NewDecode creates a decode-kind error.
func NewDecode(msg string, err error) *ToolError {
	return &ToolError{Kind: KindDecode, Message: msg, Err: err}
}

// NewTool creates an error for a failure reported by the remote service itself.
func NewTool(msg string) *ToolError {
	return &ToolError{Kind: KindTool, Message: msg}
}

// NewValidation creates a validation-kind error.
func NewValidation(msg string) *ToolError {
	return &ToolError{Kind: KindValidation, Message: msg}
}

// IsKind checks if an error is a ToolError with the given kind.
func IsKind(err error, kind Kind) bool {
	if tErr, ok := err.(*ToolError); ok {
		return tErr.Kind == kind
	}
	return false
}
