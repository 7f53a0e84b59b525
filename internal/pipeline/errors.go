package pipeline

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of a pipeline error.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindInvalidTransition    Kind = "invalid_transition"
	KindDuplicateApplication Kind = "duplicate_application"
	KindValidation           Kind = "validation_error"
	KindConflict             Kind = "conflict"
	KindInternal             Kind = "internal"
)

// Error is returned by every Engine operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a pipeline error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the human-readable message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func notFound(msg string) *Error {
	return NewError(KindNotFound, msg, nil)
}

func forbidden(msg string) *Error {
	return NewError(KindForbidden, msg, nil)
}

func validation(msg string) *Error {
	return NewError(KindValidation, msg, nil)
}

func conflict(msg string, err error) *Error {
	return NewError(KindConflict, msg, err)
}

func internal(err error) *Error {
	return NewError(KindInternal, "internal error", err)
}
