// Package apperr is the error taxonomy shared by the services and the HTTP
// layer. Services return *Error values; handlers turn them into responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	EInvalid       = "invalid"
	EUnauthorized  = "unauthorized"
	EForbidden     = "forbidden"
	ENotFound      = "not found"
	EConflict      = "conflict"
	EUnprocessable = "unprocessable entity"
	EInternal      = "internal error"
)

const genericMessage = "Server error"

// Error carries a machine-readable Code, a caller-facing Msg and, for
// internal failures, the Op that failed and the underlying Err.
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		fmt.Fprintf(&b, "<%s>", e.Code)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(format string, args ...any) *Error {
	return &Error{Code: EInvalid, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error { return &Error{Code: EUnauthorized, Msg: msg} }

func Forbidden(msg string) *Error { return &Error{Code: EForbidden, Msg: msg} }

func NotFound(msg string) *Error { return &Error{Code: ENotFound, Msg: msg} }

func Conflict(msg string) *Error { return &Error{Code: EConflict, Msg: msg} }

// Internal wraps a storage or infrastructure failure.
func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Err: err}
}

// Code returns the code of the outermost *Error in err's chain, or EInternal
// for errors outside the taxonomy.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return EInternal
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Err != nil {
		return Code(e.Err)
	}
	return EInternal
}

// Message returns the caller-facing message. Internal errors never leak
// their cause.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || Code(err) == EInternal {
		return genericMessage
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return Message(e.Err)
	}
	return genericMessage
}

// HTTPStatus maps err's code to a response status.
func HTTPStatus(err error) int {
	switch Code(err) {
	case EInvalid:
		return http.StatusBadRequest
	case EUnauthorized:
		return http.StatusUnauthorized
	case EForbidden:
		return http.StatusForbidden
	case ENotFound:
		return http.StatusNotFound
	case EConflict:
		return http.StatusConflict
	case EUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
