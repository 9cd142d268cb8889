package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeMalformedTree    = "MALFORMED_TREE"
	ErrCodeUnknownOperation = "UNKNOWN_OPERATION"
	ErrCodeShapeMismatch    = "SHAPE_MISMATCH"
	ErrCodeDivisionByZero   = "DIVISION_BY_ZERO"
	ErrCodeMissingOperand   = "MISSING_OPERAND"
	ErrCodeRecursionLimit   = "RECURSION_LIMIT"
	ErrCodeParse            = "PARSE_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeExecution        = "EXECUTION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
)

// LogicError is the structured error type returned by every engine operation.
type LogicError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Path    string         `json:"path,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *LogicError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] at %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *LogicError) Unwrap() error {
	return e.Cause
}

// NewError creates a new LogicError.
func NewError(code, message string) *LogicError {
	return &LogicError{Code: code, Message: message}
}

// NewErrorf creates a new LogicError with a formatted message.
func NewErrorf(code, format string, args ...any) *LogicError {
	return &LogicError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath attaches the location of the offending tree node.
func (e *LogicError) WithPath(path string) *LogicError {
	e.Path = path
	return e
}

// WithCause attaches an underlying cause.
func (e *LogicError) WithCause(err error) *LogicError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *LogicError) WithDetails(details map[string]any) *LogicError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first LogicError in err's chain, or "".
func CodeOf(err error) string {
	var le *LogicError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
