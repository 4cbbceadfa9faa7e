package core

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Every typed error below reports Is()
// against exactly one of them.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPermission       = errors.New("permission denied")
	ErrAlreadyCompleted = errors.New("task is already completed")
	ErrPersistence      = errors.New("persistence failure")
)

var (
	ErrEmptyDate     = errors.New("date is required")
	ErrInvalidDate   = errors.New("date must be formatted as DD-MM-YYYY")
	ErrEmptyAmount   = errors.New("amount is required")
	ErrInvalidAmount = errors.New("amount must be a number")
	ErrNegative      = errors.New("amount must not be negative")
)

// ValidationError reports malformed or out-of-range input. It is always
// raised before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PermissionError is an ownership mismatch on a mutation.
type PermissionError struct {
	Kind   string
	ID     string
	UserID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %q does not have permission to modify %s %q", e.UserID, e.Kind, e.ID)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

type AlreadyCompletedError struct {
	TaskID string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("task %q is already completed", e.TaskID)
}

func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

// PersistenceError wraps a failed or malformed store round-trip.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + ": persistence failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
