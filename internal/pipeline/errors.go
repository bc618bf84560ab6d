package pipeline

import (
	"errors"
	"fmt"
)

// ValidationError marks bad input shape from the caller (missing fields,
// malformed answer arrays, undersized uploads). Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PreconditionViolation marks a stage-order violation on a session, e.g.
// running fit scoring before code evaluation. Indicates API misuse.
type PreconditionViolation struct {
	CandidateID string
	Stage       Stage
	Required    Stage
	Operation   string
}

func (e *PreconditionViolation) Error() string {
	return fmt.Sprintf("cannot run %s for candidate %s: session is in stage %s, requires %s",
		e.Operation, e.CandidateID, e.Stage, e.Required)
}

// ServiceError wraps a failure from an external collaborator. Transient
// failures (rate limits, timeouts) are retried with backoff; permanent ones
// (malformed responses, unsupported content) surface immediately and trigger
// the local fallback path where one exists.
type ServiceError struct {
	Service   string
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s service error (%s): %v", e.Service, kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewTransientError(service string, err error) error {
	return &ServiceError{Service: service, Transient: true, Err: err}
}

func NewPermanentError(service string, err error) error {
	return &ServiceError{Service: service, Transient: false, Err: err}
}

// IsTransient reports whether err (anywhere in its chain) is a retryable
// external-service failure.
func IsTransient(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Transient
	}
	return false
}

// ErrSessionNotFound is returned by the session store for unknown candidates.
var ErrSessionNotFound = errors.New("session not found")
