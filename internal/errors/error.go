package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
	CategoryService Category = "service"
	CategoryCLI     Category = "cli"
)

// CodedError is a structured error with a registry code, an explanation and
// an optional fix suggestion.
type CodedError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (runtime, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CodedError) WithSuggestion(s string) *CodedError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation of the error.
func (e *CodedError) WithDetail(d string) *CodedError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *CodedError) Wrap(err error) *CodedError {
	e.Wrapped = err
	return e
}

// New creates a CodedError from a registered error code.
func New(code string) *CodedError {
	template, ok := registry[code]
	if !ok {
		return &CodedError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CodedError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Hint,
	}
}

// Newf creates a new CodedError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CodedError {
	return &CodedError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a CodedError.
// Errors that already carry a code are returned as is.
func FromError(err error, code string) *CodedError {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// FromReactive maps an error returned by the reactive runtime to its
// runtime code. Errors not produced by the runtime are wrapped as R002.
func FromReactive(err error) *CodedError {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, reactive.ErrCycle):
		return FromError(err, "R001")
	case stderrors.Is(err, reactive.ErrBudgetExceeded):
		return FromError(err, "R003")
	case stderrors.Is(err, reactive.ErrWriteInEffect):
		return FromError(err, "R004")
	}

	ce := FromError(err, "R002")
	var ee *reactive.EffectError
	if ce.Code == "R002" && stderrors.As(err, &ee) && ee.Name != "" {
		ce.Detail = fmt.Sprintf("Effect %q failed during %s.", ee.Name, ee.Phase)
	}
	return ce
}
