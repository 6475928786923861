package utils

import (
	"errors"
	"fmt"
)

// ValidationError marks a missing or malformed request field. It is always
// mapped to a 400 response and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing referenced record (category, video).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConflictError marks a write that contradicts existing state
// (duplicate category name, category still referenced by videos).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// IncompleteUploadError is returned when the remote part count does not
// match the client-declared chunk count at merge time. The client is
// expected to resend the missing chunks and retry.
type IncompleteUploadError struct {
	Want int
	Got  int
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("upload incomplete: expected %d parts, store has %d", e.Want, e.Got)
}

// UpstreamError wraps an object-store or transport failure. Transient
// failures are retried by the upload retry policy before they surface.
type UpstreamError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

func UpstreamTransient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err, Transient: true}
}

// IsTransient reports whether err was marked retryable by the layer that
// produced it.
func IsTransient(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Transient
}
