package errors

import (
	stderrors "errors"
	"fmt"
)

// ValidationError reports user input that failed a field rule. The dialogue
// recovers by prompting for the same field again.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// SlotConflictError reports that a time range is no longer bookable on a date.
type SlotConflictError struct {
	DateISO   string
	TimeRange string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s on %s is not available", e.TimeRange, e.DateISO)
}

// PersistenceError wraps a failure of the backing key-value store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UnknownInputError reports input that matches no rule for the current step.
type UnknownInputError struct {
	Step  string
	Input string
}

func (e *UnknownInputError) Error() string {
	return fmt.Sprintf("input %q not understood in step %s", e.Input, e.Step)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsSlotConflict(err error) bool {
	var target *SlotConflictError
	return stderrors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return stderrors.As(err, &target)
}

func IsUnknownInput(err error) bool {
	var target *UnknownInputError
	return stderrors.As(err, &target)
}
