package repository

import (
	"context"

	"commute/internal/domain"
)

// ContractRepository defines the persistence operations for contracts.
type ContractRepository interface {
	// Create persists a new contract.
	// Returns ErrDuplicate if the request already has a non-cancelled contract.
	Create(ctx context.Context, contract *domain.Contract) error

	// GetByID retrieves a contract by ID.
	GetByID(ctx context.Context, id string) (*domain.Contract, error)

	// GetOpenByRequestID retrieves the non-cancelled contract for a request.
	// Returns nil if none exists.
	GetOpenByRequestID(ctx context.Context, requestID string) (*domain.Contract, error)

	// ListByStatus retrieves contracts in the given status, newest first.
	ListByStatus(ctx context.Context, status domain.ContractStatus) ([]*domain.Contract, error)

	// ListByBusiness retrieves contracts whose request belongs to the business.
	ListByBusiness(ctx context.Context, businessID string) ([]*domain.Contract, error)

	// ListByCompany retrieves a company's contracts in the given status, newest first.
	ListByCompany(ctx context.Context, companyID string, status domain.ContractStatus) ([]*domain.Contract, error)

	// DeleteCancelledByRequestID removes the cancelled contracts of a request.
	DeleteCancelledByRequestID(ctx context.Context, requestID string) error

	// UpdateStatus moves a contract from one status to another.
	// Returns ErrStatusConflict if the stored status is not from.
	UpdateStatus(ctx context.Context, id string, from, to domain.ContractStatus) error
}
