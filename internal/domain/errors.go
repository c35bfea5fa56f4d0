package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by the action boundary that reports them.
type ErrorKind string

const (
	KindConfig     ErrorKind = "config"
	KindExtraction ErrorKind = "extraction"
	KindCompletion ErrorKind = "completion"
	KindValidation ErrorKind = "validation"
)

// Error carries a kind, a user-facing message and the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func ConfigurationError(message string, err error) *Error {
	return NewError(KindConfig, message, err)
}

func ExtractionError(message string, err error) *Error {
	return NewError(KindExtraction, message, err)
}

func CompletionError(message string, err error) *Error {
	return NewError(KindCompletion, message, err)
}

func ValidationError(message string, err error) *Error {
	return NewError(KindValidation, message, err)
}

// IsKind reports whether any error in err's chain is a domain error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first domain error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
