// Package apperror is the error taxonomy shared by the identity flows.
//
// Every failure that leaves an application service is an *Error carrying a
// Kind. The transport maps kinds onto status codes; KindCoverUp is special:
// it is a success-shaped answer that hides a security-sensitive failure, and
// its Message is the only thing a caller ever sees.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindConflict
	KindNotFound
	KindUnauthorized
	KindCoverUp
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindCoverUp:
		return "cover_up"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Unauthorized subtypes.
const (
	SubtypeBadCredentials = "bad_credentials"
	SubtypeLocalAuth      = "local_auth"
)

type Error struct {
	Kind    Kind
	Subtype string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidArgument(msg string, details ...string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg, Details: details}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Unauthorized(subtype, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Subtype: subtype, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// CoverUp builds the generic answer returned in place of a sensitive failure.
func CoverUp(msg string) *Error {
	return &Error{Kind: KindCoverUp, Message: msg}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// With attaches an underlying cause without changing the visible message.
func (e *Error) With(err error) *Error {
	e.Err = err
	return e
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

func IsCoverUp(err error) bool {
	return err != nil && KindOf(err) == KindCoverUp
}
