package repository

import (
	"context"

	"commute/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByUserID retrieves the driver record of an identity subject.
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)

	// ListByCompany retrieves a company's drivers, optionally only available ones.
	ListByCompany(ctx context.Context, companyID string, availableOnly bool) ([]*domain.Driver, error)

	// UpdateAvailability sets whether a driver takes new assignments.
	UpdateAvailability(ctx context.Context, id string, availability domain.DriverAvailability) error
}
