package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed remote call. Every non-2xx response and
// every transport failure maps to exactly one kind.
type ErrorKind int

const (
	// Unauthorized means the credential is missing or invalid. It is the
	// only kind that should trigger a session teardown by the caller.
	Unauthorized ErrorKind = iota
	// NotFound means the target entity vanished server-side.
	NotFound
	// Conflict means the mutation collided with server state, e.g. a
	// duplicate join.
	Conflict
	// ValidationFailed means the server rejected the request payload.
	ValidationFailed
	// NetworkFailure means the transport never produced a response.
	NetworkFailure
	// ServerFailure covers every other unexpected non-2xx response.
	ServerFailure
)

// String returns a short label for logging and metrics.
func (k ErrorKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case ValidationFailed:
		return "validation_failed"
	case NetworkFailure:
		return "network_failure"
	default:
		return "server_failure"
	}
}

// Error is the typed failure returned by every client method.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status, 0 for transport failures
	Detail string // server-provided message, may be empty
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	}
	return e.Kind.String()
}

// kindForStatus maps an HTTP status to an ErrorKind.
func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return Unauthorized
	case http.StatusNotFound:
		return NotFound
	case http.StatusConflict:
		return Conflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ValidationFailed
	default:
		return ServerFailure
	}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and
// reports whether it was one.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// IsUnauthorized reports whether err is a credential failure.
func IsUnauthorized(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == Unauthorized
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
