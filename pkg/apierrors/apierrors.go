// Package apierrors defines the error envelope returned by the public API.
//
// Every rejected request is described by exactly one Error: a top-level
// category, an optional message, and at most one field-level report.
// Transport code converts an Error into an HTTP response with
// httputil.WriteError; anything that is not an Error is treated as an
// internal fault.
package apierrors

import (
	"errors"
	"net/http"
)

// Code is the top-level error category.
type Code string

const (
	CodeValidationFailed    Code = "ValidationFailed"
	CodeInternalServerError Code = "InternalServerError"
)

// FieldCode classifies a field-level failure.
type FieldCode string

const (
	FieldIsRequired    FieldCode = "IsRequired"
	FieldInvalidFormat FieldCode = "InvalidFormat"
)

// InternalMessage is the only message an internal fault ever exposes.
const InternalMessage = "An unexpected error occurred. Please try again later."

// FieldError names one offending input field.
type FieldError struct {
	Field   *string   `json:"field"`
	Code    FieldCode `json:"code"`
	Message *string   `json:"message"`
}

// FieldName returns the offending field, or "" for a field-less report.
func (f FieldError) FieldName() string {
	if f.Field == nil {
		return ""
	}
	return *f.Field
}

// Error is an API-visible failure together with the HTTP status it maps to.
type Error struct {
	Status      int
	Code        Code
	Message     *string
	FieldErrors []FieldError
}

func (e *Error) Error() string {
	switch {
	case len(e.FieldErrors) > 0:
		fe := e.FieldErrors[0]
		return string(e.Code) + ": " + fe.FieldName() + ": " + string(fe.Code)
	case e.Message != nil:
		return string(e.Code) + ": " + *e.Message
	default:
		return string(e.Code)
	}
}

// Field reports a single field failure on a submitted payload.
func Field(field string, code FieldCode, message string) *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Code:   CodeValidationFailed,
		FieldErrors: []FieldError{{
			Field:   &field,
			Code:    code,
			Message: &message,
		}},
	}
}

// Body reports a payload that cannot be examined field by field.
func Body(message string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeValidationFailed,
		Message: &message,
	}
}

// NotFound reports a lookup that produced nothing.
func NotFound(message string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeValidationFailed,
		Message: &message,
	}
}

// Internal is the generic fault report. Callers log the cause separately.
func Internal() *Error {
	msg := InternalMessage
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalServerError,
		Message: &msg,
	}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasField reports whether err is an *Error naming field with code.
func HasField(err error, field string, code FieldCode) bool {
	apiErr, ok := As(err)
	if !ok || len(apiErr.FieldErrors) != 1 {
		return false
	}
	fe := apiErr.FieldErrors[0]
	return fe.FieldName() == field && fe.Code == code
}
