package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStatusConflict is returned by conditional updates when the entity
	// was not in the expected status at write time.
	ErrStatusConflict = errors.New("entity status changed concurrently")

	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrReferenced is returned when a delete would orphan dependent rows.
	ErrReferenced = errors.New("entity is still referenced")
)
