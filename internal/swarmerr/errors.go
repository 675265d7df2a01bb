// Package swarmerr defines the error taxonomy shared by every layer of
// swarmer: the store, the scheduler, the backend client and the HTTP API
// all return one of these kinds so the API layer can map them to a status
// code with a single type switch.
package swarmerr

import "fmt"

// ValidationError indicates a malformed request: missing fields, an empty
// task list, or a value outside the accepted range. Surfaces as HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates an operation referenced an unknown job or task.
// Surfaces as HTTP 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NewNotFoundError builds a NotFoundError with a formatted message.
func NewNotFoundError(format string, args ...any) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a failure from the durable store layer (connection,
// concurrency, serialization). Surfaces as HTTP 503 so clients retry;
// in-memory scheduler state is never advanced past a failed write.
type StoreError struct {
	Msg string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Msg, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps an underlying error with store-layer context.
func NewStoreError(msg string, err error) *StoreError {
	return &StoreError{Msg: msg, Err: err}
}

// BackendError wraps a failure from the container backend (create/remove
// service). Logged and recovered locally; the Runner requeues a task
// whose service could not be started.
type BackendError struct {
	Msg string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("%s: %v", e.Msg, e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError wraps an underlying error with backend-layer context.
func NewBackendError(msg string, err error) *BackendError {
	return &BackendError{Msg: msg, Err: err}
}

// CredentialError indicates a configuration/environment mismatch in a
// credential provider, discovered at startup. Fatal before serving.
type CredentialError struct {
	Msg string
}

func (e *CredentialError) Error() string { return e.Msg }

// NewCredentialError builds a CredentialError with a formatted message.
func NewCredentialError(format string, args ...any) *CredentialError {
	return &CredentialError{Msg: fmt.Sprintf(format, args...)}
}
