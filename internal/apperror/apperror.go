// Package apperror defines the error kinds shared by every usecase. Callers
// branch on Kind, never on message text.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindState         Kind = "state"
	KindConflict      Kind = "conflict"
	KindGateway       Kind = "gateway"
	KindVerification  Kind = "verification"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindInternal      Kind = "internal"
)

// Retryable reports whether the caller may repeat the operation unchanged.
func (k Kind) Retryable() bool {
	return k == KindGateway
}

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

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrState         = &Error{Kind: KindState}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrGateway       = &Error{Kind: KindGateway}
	ErrVerification  = &Error{Kind: KindVerification}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAuthorization = &Error{Kind: KindAuthorization}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func State(format string, args ...any) *Error      { return newf(KindState, format, args...) }
func Conflict(format string, args ...any) *Error   { return newf(KindConflict, format, args...) }
func NotFound(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func Verification(format string, args ...any) *Error {
	return newf(KindVerification, format, args...)
}
func Authorization(format string, args ...any) *Error {
	return newf(KindAuthorization, format, args...)
}

// Gateway wraps a transport or timeout failure talking to a payment provider.
func Gateway(err error, format string, args ...any) *Error {
	e := newf(KindGateway, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the human readable message for err, hiding internal details.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
