// Package fault defines the categorical failures surfaced by pipeline stages,
// the persistence adapter and the artifact viewer.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	// NotFound means a required input artifact or file is absent.
	NotFound Kind = "not_found"
	// InvalidInput means content is structurally wrong: empty, not a list,
	// or otherwise unusable as a whole.
	InvalidInput Kind = "invalid_input"
	// MalformedResponse means the reasoning or extraction service returned
	// output that does not have the expected shape.
	MalformedResponse Kind = "malformed_response"
	// UpstreamFailure means an external call failed or a persistence commit
	// was rolled back.
	UpstreamFailure Kind = "upstream_failure"
)

// Error carries a Kind, a human-readable detail and an optional cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with a formatted detail and no cause.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around cause. A nil cause yields a plain Error.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// Missing reports a NotFound failure for the artifact at path.
func Missing(path string) error {
	return New(NotFound, "file %q not found", path)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when the
// error is unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err's chain carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Detail returns the detail string of the first *Error in err's chain, or
// err.Error() when unclassified.
func Detail(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return err.Error()
}

// HTTPStatus maps a failure to the status code the HTTP surface returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case MalformedResponse, UpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
