// Package apperror defines the error kinds shared by the item lifecycle,
// authorization and matching components.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error kind.
type Code string

const (
	CodeNotFound                Code = "NOT_FOUND"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeInvalidTransition       Code = "INVALID_TRANSITION"
	CodeValidation              Code = "VALIDATION"
	CodeCollaboratorUnavailable Code = "COLLABORATOR_UNAVAILABLE"

	// CodeConflict is raised by the store when a compare-and-swap loses a
	// race. The lifecycle engine turns it into CodeInvalidTransition.
	CodeConflict Code = "CONFLICT"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrNotFound                = &Error{Code: CodeNotFound}
	ErrUnauthorized            = &Error{Code: CodeUnauthorized}
	ErrInvalidTransition       = &Error{Code: CodeInvalidTransition}
	ErrValidation              = &Error{Code: CodeValidation}
	ErrCollaboratorUnavailable = &Error{Code: CodeCollaboratorUnavailable}
	ErrConflict                = &Error{Code: CodeConflict}
)

var httpStatus = map[Code]int{
	CodeNotFound:                http.StatusNotFound,
	CodeUnauthorized:            http.StatusForbidden,
	CodeInvalidTransition:       http.StatusConflict,
	CodeValidation:              http.StatusBadRequest,
	CodeCollaboratorUnavailable: http.StatusServiceUnavailable,
	CodeConflict:                http.StatusConflict,
}

// Error is a domain error with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the status code an API response should carry.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// NotFound reports a missing record of the given kind.
func NotFound(kind, id string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s %s not found", kind, id),
		Metadata: map[string]string{"kind": kind, "id": id},
	}
}

// Unauthorized reports a policy denial for action.
func Unauthorized(action, reason string) *Error {
	return &Error{
		Code:     CodeUnauthorized,
		Message:  fmt.Sprintf("not permitted to %s: %s", action, reason),
		Metadata: map[string]string{"action": action},
	}
}

// InvalidTransition reports a status change that is not an edge of the
// lifecycle graph.
func InvalidTransition(from, to string) *Error {
	return &Error{
		Code:     CodeInvalidTransition,
		Message:  fmt.Sprintf("cannot move item from %s to %s", from, to),
		Metadata: map[string]string{"from": from, "to": to},
	}
}

// Validation reports input problems. fields names the offending fields in
// a stable order.
func Validation(message string, fields ...string) *Error {
	return &Error{
		Code:     CodeValidation,
		Message:  message,
		Metadata: map[string]string{"fields": strings.Join(fields, ",")},
	}
}

// Unavailable wraps a failure of the item store or the matcher.
func Unavailable(collaborator string, cause error) *Error {
	return &Error{
		Code:     CodeCollaboratorUnavailable,
		Message:  collaborator + " unavailable",
		Metadata: map[string]string{"collaborator": collaborator},
		Cause:    cause,
	}
}

// Conflict reports a lost optimistic-concurrency race on id.
func Conflict(kind, id string) *Error {
	return &Error{
		Code:     CodeConflict,
		Message:  fmt.Sprintf("%s %s was modified concurrently", kind, id),
		Metadata: map[string]string{"kind": kind, "id": id},
	}
}

// CodeOf extracts the code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// As returns err as an *Error when it is one.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
