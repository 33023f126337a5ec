// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for translation at the boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindAccessDenied
	KindPermissionDenied
	KindNotFound
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindAccessDenied:
		return "access_denied"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified error. Msg is safe to show to callers; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on Kind, so errors.Is(err, apperr.ErrNotFound) holds for
// every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Msg: "Unauthorized"}
	ErrAccessDenied     = &Error{Kind: KindAccessDenied, Msg: "Access denied"}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied, Msg: "Permission denied"}
	ErrNotFound         = &Error{Kind: KindNotFound, Msg: "Not found"}
	ErrConflict         = &Error{Kind: KindConflict, Msg: "Conflict"}
	ErrValidation       = &Error{Kind: KindValidation, Msg: "Invalid request"}
)

func AccessDenied() error { return &Error{Kind: KindAccessDenied, Msg: "Access denied"} }

func PermissionDenied(msg string) error {
	return &Error{Kind: KindPermissionDenied, Msg: msg}
}

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// Wrap classifies cause under kind with a public message.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the public message of err, or fallback when err is not
// classified or is internal.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
