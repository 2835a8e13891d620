package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable failure codes surfaced to the host layer.
const (
	// CodeSystem covers unexpected internal failures.
	CodeSystem = "internal_error"
	// CodeSchemaViolation means a judgment response did not match its declared schema.
	CodeSchemaViolation = "schema_violation"
	// CodeUpstream covers transport/timeout/rate-limit failures from the model services.
	CodeUpstream = "upstream_error"
	// CodeEmptyRetrieval means the classified topic returned zero documents.
	CodeEmptyRetrieval = "empty_retrieval"
	// CodeNoCandidates means the pipeline finished a turn without any candidate answer.
	CodeNoCandidates = "no_candidates"
	// CodeRedis covers conversation store failures.
	CodeRedis = "redis_error"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes missing keys in Redis.
	RedisNotFoundMessage = "redis key not found"
)

// Error wraps an underlying error with an HTTP status, a stable code and a
// safe message. Internal detail stays in Err for logging; only Code and
// Message are meant to reach callers.
type Error struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, code, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// SchemaViolation marks a judgment-service response that cannot be parsed
// into its declared enum/field constraints. Never retried.
func SchemaViolation(err error) *Error {
	return New(err, http.StatusBadGateway, CodeSchemaViolation, "judgment response violates declared schema")
}

// Upstream marks a transport-level failure from a model service.
func Upstream(err error) *Error {
	return New(err, http.StatusBadGateway, CodeUpstream, "upstream model service failed")
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}

// CodeOf extracts the failure code from an error chain, defaulting to
// CodeSystem for plain errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeSystem
}
