package models

import "fmt"

// ValidationError marks a user-correctable input problem (missing or empty
// required field). The caller should re-prompt; the operation is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StateConflictError marks a lifecycle operation attempted from a status that
// does not permit it. The caller must refresh the report and pick a legal action.
type StateConflictError struct {
	Op     string
	Status ReportStatus
	Reason string
}

func (e *StateConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s not allowed in status %q: %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s not allowed in status %q", e.Op, e.Status)
}

// ConflictError marks a lost optimistic-concurrency race: the report changed
// between read and write. The caller reloads and retries the whole operation.
type ConflictError struct {
	ID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent update on report %s, reload and retry", e.ID)
}

// NotFoundError marks a missing report or user.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
