package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_EmptyIsValid(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Valid())
}

func TestValidationResult_AddError(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/if/0", ErrCodeUnknownOperation, `unknown operation "foo"`)

	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "/if/0", r.Errors[0].Path)
	assert.Equal(t, ErrCodeUnknownOperation, r.Errors[0].Code)
	assert.Equal(t, `unknown operation "foo"`, r.Errors[0].Message)
	assert.Equal(t, SeverityError, r.Errors[0].Severity)
}

func TestValidationResult_AddWarning(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("/+", ErrCodeShapeMismatch, "expects at least 1 operand")

	assert.True(t, r.Valid(), "warnings alone should not make result invalid")
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
}

func TestValidationResult_Merge(t *testing.T) {
	r1 := &ValidationResult{}
	r1.AddError("/", ErrCodeMalformedTree, "err1")
	r1.AddWarning("/", ErrCodeShapeMismatch, "warn1")

	r2 := &ValidationResult{}
	r2.AddError("/and/0", ErrCodeUnknownOperation, "err2")
	r2.AddWarning("/and/1", ErrCodeShapeMismatch, "warn2")

	r1.Merge(r2)

	assert.Len(t, r1.Errors, 2)
	assert.Len(t, r1.Warnings, 2)
}

func TestValidationResult_MergeNil(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/", ErrCodeMalformedTree, "err")
	r.Merge(nil)
	r.MergeExcept(nil, ErrCodeMalformedTree)
	assert.Len(t, r.Errors, 1)
}

func TestValidationResult_MergeExcept(t *testing.T) {
	other := &ValidationResult{}
	other.AddError("/", ErrCodeMalformedTree, "two keys")
	other.AddError("/a", ErrCodeUnknownOperation, "unknown")
	other.AddWarning("/b", ErrCodeShapeMismatch, "arity")

	r := &ValidationResult{}
	r.MergeExcept(other, ErrCodeMalformedTree)

	require.Len(t, r.Errors, 1)
	assert.Equal(t, ErrCodeUnknownOperation, r.Errors[0].Code)
	assert.Len(t, r.Warnings, 1)
	assert.True(t, r.HasCode(ErrCodeUnknownOperation))
	assert.False(t, r.HasCode(ErrCodeMalformedTree))
}

func TestValidationResult_ToError_Valid(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("/", ErrCodeShapeMismatch, "just a warning")
	assert.Nil(t, r.ToError())
}

func TestValidationResult_ToError_SingleError(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/foo", ErrCodeUnknownOperation, "operation not found")

	err := r.ToError()
	require.NotNil(t, err)

	lErr, ok := err.(*LogicError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, lErr.Code)
	assert.Equal(t, "operation not found", lErr.Message)
	assert.Equal(t, "/foo", lErr.Path)
	assert.Equal(t, 1, lErr.Details["error_count"])
}

func TestValidationResult_ToError_MultipleErrors(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("/", ErrCodeMalformedTree, "err1")
	r.AddError("/", ErrCodeUnknownOperation, "err2")
	r.AddWarning("/", ErrCodeShapeMismatch, "warn1")

	err := r.ToError()
	require.NotNil(t, err)

	lErr, ok := err.(*LogicError)
	require.True(t, ok)
	assert.Contains(t, lErr.Message, "2 errors")
	assert.Empty(t, lErr.Path)
	assert.Equal(t, 2, lErr.Details["error_count"])
	assert.Equal(t, 1, lErr.Details["warning_count"])
}

func TestLogicError_Format(t *testing.T) {
	err := NewError(ErrCodeDivisionByZero, "division by zero")
	assert.Equal(t, "[DIVISION_BY_ZERO] division by zero", err.Error())

	err = NewErrorf(ErrCodeUnknownOperation, "unknown operation %q", "foo").WithPath("/if/0")
	assert.Equal(t, `[UNKNOWN_OPERATION] at /if/0: unknown operation "foo"`, err.Error())
}

func TestLogicError_CodeOf(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewError(ErrCodeParse, "invalid JSON").WithCause(cause)
	wrapped := fmt.Errorf("import: %w", err)

	assert.Equal(t, ErrCodeParse, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeParse))
	assert.False(t, IsCode(wrapped, ErrCodeNotFound))
	assert.False(t, IsCode(nil, ErrCodeParse))
	assert.Equal(t, "", CodeOf(cause))
	assert.ErrorIs(t, wrapped, cause)
}
