package catalog

import "fmt"

// ErrorCode classifies catalog failures so callers can render them
// appropriately: read paths fold errors into the result envelope, the
// registration path surfaces them as typed failures.
type ErrorCode string

const (
	// ErrorNotFound means the referenced tour does not exist.
	ErrorNotFound ErrorCode = "NOT_FOUND"
	// ErrorConflict means the registration already exists.
	ErrorConflict ErrorCode = "CONFLICT"
	// ErrorBackendUnavailable means a storage or search backend failed.
	ErrorBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrorMalformedInput means the request arguments could not be used.
	ErrorMalformedInput ErrorCode = "MALFORMED_INPUT"
)

// Error is a classified catalog failure.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("catalog: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("catalog: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
