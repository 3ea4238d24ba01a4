package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error independently of the operation that raised it.
type Kind string

const (
	KindValidation Kind = "validation_failed"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindUpstream   Kind = "upstream_failure"
	KindInternal   Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target has the same kind, and the same reason when target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Code:    StatusFor(kind),
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// WithReason returns a copy of e tagged with reason.
func (e *Error) WithReason(reason string) *Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

// Wrap returns a copy of e carrying message and cause.
func (e *Error) Wrap(message string, err error) *Error {
	cp := *e
	if message != "" {
		cp.Message = message
	}
	cp.Err = err
	return &cp
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// From returns err as an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.Wrap("", err)
}

// Common error types
var (
	ErrValidation     = New(KindValidation, "Validation error", nil)
	ErrNotFound       = New(KindNotFound, "Not found", nil)
	ErrConflict       = New(KindConflict, "Conflict", nil)
	ErrUpstream       = New(KindUpstream, "Upstream service failure", nil)
	ErrInternalServer = New(KindInternal, "Internal server error", nil)
)
