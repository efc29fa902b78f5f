package server

import (
	"errors"
	"fmt"
)

// Handler failure taxonomy. Every handler converts its own failures
// into one of these; the transport layer turns whatever comes back
// into a private error event for the requesting connection.

type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type AuthorizationError struct {
	Reason string
}

func (e AuthorizationError) Error() string { return e.Reason }

type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string { return e.Reason }

// StorageError marks a persistence failure after preconditions passed.
// The caller cannot tell whether the mutation applied, so it is
// reported distinctly as retryable.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string { return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err) }

func (e StorageError) Unwrap() error { return e.Err }

// clientMessage maps a handler error to the string sent to the
// requesting connection. Storage failures are distinguished so the
// client knows a retry may succeed.
func clientMessage(err error) string {
	var storageErr StorageError
	if errors.As(err, &storageErr) {
		return "storage unavailable, please retry"
	}
	var validationErr ValidationError
	var notFoundErr NotFoundError
	var authErr AuthorizationError
	var conflictErr ConflictError
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &notFoundErr),
		errors.As(err, &authErr),
		errors.As(err, &conflictErr):
		return err.Error()
	}
	return "internal error"
}
