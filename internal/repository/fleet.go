package repository

import (
	"context"

	"commute/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create persists a new vehicle.
	// Returns ErrDuplicate if the plate number is taken.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	ListByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error)

	// Update overwrites the editable fields of a vehicle.
	// Returns ErrDuplicate if the plate number is taken.
	Update(ctx context.Context, vehicle *domain.Vehicle) error
}

// CompanyRepository defines the read operations for transport companies.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Company, error)

	// GetByOwnerID retrieves the company run by an identity subject.
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Company, error)

	List(ctx context.Context) ([]*domain.Company, error)
}
