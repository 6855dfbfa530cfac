package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures returned by the catalog core
type ErrorKind string

const (
	KindFormat     ErrorKind = "format"
	KindNotFound   ErrorKind = "not_found"
	KindOwnership  ErrorKind = "ownership"
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
)

// Error is a client-facing failure carrying a kind and a human-readable reason
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports whether target is a kind sentinel (an Error without message) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Kind sentinels, usable with errors.Is
var (
	ErrFormat     = &Error{Kind: KindFormat}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrOwnership  = &Error{Kind: KindOwnership}
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
)

func NewFormatError(format string, args ...any) *Error {
	return &Error{Kind: KindFormat, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewOwnershipError(format string, args ...any) *Error {
	return &Error{Kind: KindOwnership, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first domain error in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}
