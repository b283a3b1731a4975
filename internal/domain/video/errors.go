package video

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrObjectNotFound is returned by ObjectStore implementations when a key is
// absent, as opposed to a transport or backend failure. Read paths use it to
// tell stale cache entries apart from genuine errors.
var ErrObjectNotFound = errors.New("object not found")

// ErrorKind categorizes pipeline failures.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindTranscodeFailure   ErrorKind = "TRANSCODE_FAILURE"
	KindPreviewFailure     ErrorKind = "PREVIEW_FAILURE"
	KindStorageFailure     ErrorKind = "STORAGE_FAILURE"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
	KindNotFound           ErrorKind = "NOT_FOUND"
)

// Error is the typed error surfaced by the service. The original cause is
// preserved through Unwrap so callers can still inspect it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a typed error for the given operation.
func E(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is a video error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindToHTTPStatus maps error kinds to HTTP status codes.
func KindToHTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTranscodeFailure:
		return http.StatusUnprocessableEntity
	case KindStorageFailure, KindPersistenceFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
