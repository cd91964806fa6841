package repository

import (
	"context"

	"commute/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// ListByDriver retrieves a driver's trips ordered by schedule.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error)

	// ListByContract retrieves a contract's trips ordered by schedule.
	ListByContract(ctx context.Context, contractID string) ([]*domain.Trip, error)

	// Transition writes the trip's status, actual times and coordinates
	// only if the stored status is from.
	// Returns ErrStatusConflict if the stored status differs.
	Transition(ctx context.Context, trip *domain.Trip, from domain.TripStatus) error
}
