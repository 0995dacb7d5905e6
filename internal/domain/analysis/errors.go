package analysis

import (
	"errors"
	"fmt"
)

// ErrorKind names a failure category of the pipeline.
type ErrorKind string

const (
	KindInvalidInput                ErrorKind = "InvalidInput"
	KindInvalidURLFormat            ErrorKind = "InvalidUrlFormat"
	KindFetchFailed                 ErrorKind = "FetchFailed"
	KindEmailParseFailed            ErrorKind = "EmailParseFailed"
	KindClassifierUnavailable       ErrorKind = "ClassifierUnavailable"
	KindClassifierResponseMalformed ErrorKind = "ClassifierResponseMalformed"
	KindPersistenceFailed           ErrorKind = "PersistenceFailed"
)

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrInvalidInput                = &Error{Kind: KindInvalidInput}
	ErrInvalidURLFormat            = &Error{Kind: KindInvalidURLFormat}
	ErrFetchFailed                 = &Error{Kind: KindFetchFailed}
	ErrEmailParseFailed            = &Error{Kind: KindEmailParseFailed}
	ErrClassifierUnavailable       = &Error{Kind: KindClassifierUnavailable}
	ErrClassifierResponseMalformed = &Error{Kind: KindClassifierResponseMalformed}
	ErrPersistenceFailed           = &Error{Kind: KindPersistenceFailed}
)

// Error carries a kind from the taxonomy plus the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// E wraps err with kind. op names the failing step, e.g. "fetch".
func E(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return string(e.Kind)
	case e.Op == "":
		return e.Err.Error()
	default:
		return e.Op + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the taxonomy kind of err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindInvalidInput, KindInvalidURLFormat:
		return true
	}
	return false
}
