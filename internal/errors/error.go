package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryBuild    Category = "build"
	CategoryRegistry Category = "registry"
	CategorySource   Category = "source"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// TreeError is a structured error with a code, suggestion and documentation.
type TreeError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (build, registry, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Stack is the open ancestor chain at the time of the error, rendered
	// root first. Only set for build errors.
	Stack []uint32

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *TreeError) Error() string {
	msg := e.Message
	if e.Detail != "" && e.Category == CategoryBuild {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *TreeError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *TreeError) WithDetail(d string) *TreeError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *TreeError) WithDetailf(format string, args ...any) *TreeError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithStack records the open ancestor chain.
func (e *TreeError) WithStack(stack []uint32) *TreeError {
	e.Stack = append([]uint32(nil), stack...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *TreeError) WithSuggestion(s string) *TreeError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *TreeError) Wrap(err error) *TreeError {
	e.Wrapped = err
	return e
}

// New creates a TreeError from a registered error code.
func New(code string) *TreeError {
	template, ok := registry[code]
	if !ok {
		return &TreeError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &TreeError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new TreeError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *TreeError {
	return &TreeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a TreeError.
func FromError(err error, code string) *TreeError {
	if err == nil {
		return nil
	}
	var te *TreeError
	if stderrors.As(err, &te) {
		return te
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a TreeError with the given code.
func HasCode(err error, code string) bool {
	var te *TreeError
	for err != nil {
		if !stderrors.As(err, &te) {
			return false
		}
		if te.Code == code {
			return true
		}
		err = te.Wrapped
	}
	return false
}
