package errprocess

import (
	"errors"
	"net/http"
)

// Kind classifies a failure so transports can map it to a status code.
type Kind string

const (
	// Internal unclassified failure
	Internal Kind = "internal"
	// Unauthorized no resolvable caller identity
	Unauthorized Kind = "unauthorized"
	// Forbidden caller not allowed on the target
	Forbidden Kind = "forbidden"
	// NotFound target absent or soft-deleted
	NotFound Kind = "not_found"
	// Conflict target already exists
	Conflict Kind = "conflict"
	// InvalidInput malformed request
	InvalidInput Kind = "invalid_input"
	// PersistenceFailed a write affected fewer rows than expected
	PersistenceFailed Kind = "persistence_failed"
	// PartialReadUpdate read-marking count mismatch
	PartialReadUpdate Kind = "partial_read_update"
)

// Error is a classified error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New create a classified error
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classify an underlying error
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce interface{ ErrKind() Kind }
	if errors.As(err, &ce) {
		return ce.ErrKind()
	}
	return Internal
}

// ErrKind returns the error kind
func (e *Error) ErrKind() Kind {
	return e.Kind
}

// HTTPStatus map kind to http status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
