package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrorKind classifies business failures so callers can tell "your request was invalid" from
// "infrastructure failed, retry".
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindForbidden
	KindBadRequest
	KindConflict
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad request"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage failure"
	default:
		return "unknown"
	}
}

// Error is a classified error. Err holds the underlying store error for KindStorage.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (err *Error) Error() string {
	if err.Err != nil && err.Message != "" {
		return err.Message + ": " + err.Err.Error()
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

func (err *Error) Unwrap() error { return err.Err }

func NewNotFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func NewForbiddenError(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }
func NewBadRequestError(msg string) error { return &Error{Kind: KindBadRequest, Message: msg} }
func NewConflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

// StorageError wraps a store error. Errors that are already classified keep their kind
// (eg. a repository returning a NotFound sentinel) and are only annotated with `msg`.
func StorageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return errors.Wrap(err, msg)
	}
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf returns the kind of the root cause of `err`.
func KindOf(err error) ErrorKind {
	switch cause := errors.Cause(err).(type) {
	case *Error:
		return cause.Kind
	case *ValidationError, validator.ValidationErrors:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsForbidden(err error) bool  { return KindOf(err) == KindForbidden }
func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsStorage(err error) bool    { return KindOf(err) == KindStorage }

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
