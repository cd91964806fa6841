package service

import (
	"errors"
	"fmt"

	"commute/internal/repository"
)

var (
	// ErrValidation is returned when a command is malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when an entity is not in the required source state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrReferentialMismatch is returned when a driver or vehicle does not belong to the named company.
	ErrReferentialMismatch = errors.New("referential mismatch")

	// ErrPartialFailure marks trip materialization that created fewer trips than expected.
	ErrPartialFailure = errors.New("partial failure")

	// ErrContractExists is returned when a request already has a non-cancelled contract.
	ErrContractExists = errors.New("request already has an open contract")

	// ErrRequestBusy is returned when another operation holds the request.
	// Retrying later may succeed.
	ErrRequestBusy = errors.New("request is being modified by another operation, retry")

	// ErrInternal wraps unexpected persistence faults.
	ErrInternal = errors.New("internal error")
)

// TransitionError reports a transition attempted from the wrong state.
type TransitionError struct {
	Entity  string
	Current string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s is %s", e.Entity, e.Current)
}

// Is makes TransitionError match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// MismatchError reports which side of an assignment belongs to another company.
type MismatchError struct {
	Which string // "vehicle" or "driver"
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s does not belong to the specified company", e.Which)
}

// Is makes MismatchError match ErrReferentialMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrReferentialMismatch
}

// PartialFailureError reports a best-effort batch that fell short.
type PartialFailureError struct {
	Expected int
	Created  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("created %d of %d trips", e.Created, e.Expected)
}

// Is makes PartialFailureError match ErrPartialFailure.
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

// lookupErr passes ErrNotFound through with context and wraps everything else as internal.
func lookupErr(entity string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return internal("load "+entity, err)
}
