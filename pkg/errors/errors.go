package errors

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers and metrics
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeUpstreamTransport  = "UPSTREAM_TRANSPORT"
	CodeUpstreamShape      = "UPSTREAM_SHAPE"
	CodeModelTransport     = "MODEL_TRANSPORT"
	CodeModelEmptyResponse = "MODEL_EMPTY_RESPONSE"
	CodeAnalysisParse      = "ANALYSIS_PARSE"
	CodeAnalysisShape      = "ANALYSIS_SHAPE"
)

// Common errors, matched with Is by code
var (
	ErrInvalidInput       = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUpstreamTransport  = &Error{Code: CodeUpstreamTransport, Message: "content graph request failed"}
	ErrUpstreamShape      = &Error{Code: CodeUpstreamShape, Message: "unexpected content graph response"}
	ErrModelTransport     = &Error{Code: CodeModelTransport, Message: "model request failed"}
	ErrModelEmptyResponse = &Error{Code: CodeModelEmptyResponse, Message: "model returned no content"}
	ErrAnalysisParse      = &Error{Code: CodeAnalysisParse, Message: "model output is not valid JSON"}
	ErrAnalysisShape      = &Error{Code: CodeAnalysisShape, Message: "model output does not match the analysis schema"}
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	// Field is the dotted path of the offending field, if any
	Field string
	Err   error
}

// Error returns the error message
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %q)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values carrying the same non-empty code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithField creates a coded error that names the offending field
func WithField(code, field, message string, err error) error {
	return &Error{
		Code:    code,
		Message: message,
		Field:   field,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the first non-empty error code in the chain
func GetCode(err error) string {
	if e := firstCoded(err); e != nil {
		return e.Code
	}
	return ""
}

// GetField returns the field path of the first coded error in the chain
func GetField(err error) string {
	if e := firstCoded(err); e != nil {
		return e.Field
	}
	return ""
}

func firstCoded(err error) *Error {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil
		}
		if e.Code != "" {
			return e
		}
		err = e.Err
	}
	return nil
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true for errors caused by the caller's input,
// including posts the content graph cannot resolve
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUpstreamShape)
}

// Retryable reports whether repeating the same call may succeed
func Retryable(err error) bool {
	switch GetCode(err) {
	case CodeUpstreamTransport, CodeModelTransport, CodeModelEmptyResponse,
		CodeAnalysisParse, CodeAnalysisShape:
		return true
	}
	return false
}
