package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so the API boundary can map it to a
// client-visible response without string matching.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindPermissionDenied
	KindValidation
	KindConflict
)

// Error is a request-local application error. None of these are retried
// internally and none are fatal to the process.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// NotFound reports that a requested resource does not exist.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports that the requester is not the resource owner.
func PermissionDenied(format string, args ...interface{}) *Error {
	return &Error{kind: KindPermissionDenied, msg: fmt.Sprintf(format, args...)}
}

// Validation reports input that violates field constraints.
func Validation(format string, args ...interface{}) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// ValidationWrap attaches a validation cause (e.g. from the struct validator)
// while keeping the error classifiable.
func ValidationWrap(err error, msg string) *Error {
	return &Error{kind: KindValidation, msg: msg, err: err}
}

// Conflict reports a uniqueness violation (duplicate email/phone).
func Conflict(format string, args ...interface{}) *Error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

func isKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == k
}

func IsNotFound(err error) bool         { return isKind(err, KindNotFound) }
func IsPermissionDenied(err error) bool { return isKind(err, KindPermissionDenied) }
func IsValidation(err error) bool       { return isKind(err, KindValidation) }
func IsConflict(err error) bool         { return isKind(err, KindConflict) }

// HTTPStatus maps an error to the status code the REST layer should answer
// with. Unclassified errors are treated as internal.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
