package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidUnlockPassword = errors.New("invalid unlock password")
	ErrUnlockNotConfigured   = errors.New("unlock password is not configured")
)

// ConflictError reports a role or period overlap violation.
type ConflictError struct {
	Resource string
	Reason   string
}

func NewConflictError(resource, format string, args ...any) *ConflictError {
	return &ConflictError{Resource: resource, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
}

// ValidationError reports missing or inconsistent configuration.
type ValidationError struct {
	Message  string
	Problems []string
}

func NewValidationError(message string, problems ...string) *ValidationError {
	return &ValidationError{Message: message, Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Problems, "; ")
}

// ImmutableError reports a write or delete on a confirmed period or a locked movement.
type ImmutableError struct {
	Resource string
	ID       int64
	Reason   string
}

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("%s %d is immutable: %s", e.Resource, e.ID, e.Reason)
}

// DependencyError reports that the transfer ledger could not answer.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("transfer ledger %s failed: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// AsDependencyError wraps err unless it already is a DependencyError.
func AsDependencyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var dep *DependencyError
	if errors.As(err, &dep) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}
