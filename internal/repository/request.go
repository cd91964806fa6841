package repository

import (
	"context"
	"time"

	"commute/internal/domain"
)

// RequestUpdate holds the editable fields of a request. Nil fields are left unchanged.
type RequestUpdate struct {
	PickupLocation *string
	Destination    *string
	EmployeesCount *int
	Frequency      *domain.Frequency
	StartDate      *time.Time
	EndDate        *time.Time
	ClearEndDate   bool // set end_date to NULL; ignored when EndDate is set
	SpecialNotes   *string
}

// Empty reports whether the update changes nothing.
func (u RequestUpdate) Empty() bool {
	return u.PickupLocation == nil && u.Destination == nil && u.EmployeesCount == nil &&
		u.Frequency == nil && u.StartDate == nil && u.EndDate == nil && !u.ClearEndDate &&
		u.SpecialNotes == nil
}

// RequestFilter narrows request listings. Zero values match everything.
type RequestFilter struct {
	BusinessID string
	Status     domain.RequestStatus
}

// RequestRepository defines the persistence operations for transport requests.
type RequestRepository interface {
	// Create persists a new request.
	Create(ctx context.Context, req *domain.Request) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.Request, error)

	// List retrieves requests matching the filter, newest first.
	List(ctx context.Context, filter RequestFilter) ([]*domain.Request, error)

	// Update applies changes to a request only while it is in the expected status.
	// Returns ErrStatusConflict if the stored status differs.
	Update(ctx context.Context, id string, expected domain.RequestStatus, changes RequestUpdate) error

	// UpdateStatus moves a request from one status to another.
	// Returns ErrStatusConflict if the stored status is not from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) error

	// Delete removes a request only while it is in the expected status.
	// Returns ErrStatusConflict if the stored status differs and ErrReferenced
	// if contracts still point at it.
	Delete(ctx context.Context, id string, expected domain.RequestStatus) error
}
