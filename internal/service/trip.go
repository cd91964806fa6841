package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"commute/internal/domain"
	"commute/internal/events"
	"commute/internal/repository"
)

// TripService handles trip scheduling and execution.
type TripService struct {
	tripRepo     repository.TripRepository
	contractRepo repository.ContractRepository
	requestRepo  repository.RequestRepository
	driverRepo   repository.DriverRepository
	audit        auditor
	logger       *slog.Logger
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	contractRepo repository.ContractRepository,
	requestRepo repository.RequestRepository,
	driverRepo repository.DriverRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *TripService {
	return &TripService{
		tripRepo:     tripRepo,
		contractRepo: contractRepo,
		requestRepo:  requestRepo,
		driverRepo:   driverRepo,
		audit:        newAuditor(publisher, logger),
		logger:       logger,
	}
}

// CreateTripInput contains the parameters for scheduling an ad hoc trip.
type CreateTripInput struct {
	ContractID  string
	ScheduledAt time.Time
}

// CreateTrip schedules a trip outside the contract's recurrence. Only the
// broker may do this and only for an active contract.
func (s *TripService) CreateTrip(ctx context.Context, actor domain.Actor, in CreateTripInput) (*domain.Trip, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if in.ContractID == "" {
		return nil, validationErr("contract_id is required")
	}
	if in.ScheduledAt.IsZero() {
		return nil, validationErr("scheduled_datetime is required")
	}

	contract, err := s.contractRepo.GetByID(ctx, in.ContractID)
	if err != nil {
		return nil, lookupErr("contract", err)
	}

	if contract.Status != domain.ContractStatusActive {
		return nil, &TransitionError{Entity: "contract", Current: string(contract.Status)}
	}

	trip := &domain.Trip{
		ID:          uuid.New().String(),
		ContractID:  contract.ID,
		DriverID:    contract.DriverID,
		ScheduledAt: in.ScheduledAt,
		Status:      domain.TripStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, internal("create trip", err)
	}

	recordTransition("trip", string(trip.Status))
	s.audit.record(ctx, events.TripCreated, trip.ID, actor.ID, map[string]any{
		"contract_id":  trip.ContractID,
		"scheduled_at": trip.ScheduledAt,
	})

	return trip, nil
}

// TripPositionInput carries the trip id and the optional recorded position.
type TripPositionInput struct {
	TripID string
	Lat    *float64
	Lng    *float64
}

// StartTrip moves a pending trip to active on behalf of its assigned driver.
func (s *TripService) StartTrip(ctx context.Context, actor domain.Actor, in TripPositionInput) (*domain.Trip, error) {
	trip, err := s.loadForDriver(ctx, actor, in.TripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusPending {
		return nil, &TransitionError{Entity: "trip", Current: string(trip.Status)}
	}

	next := *trip
	next.Status = domain.TripStatusActive
	next.ActualStart = time.Now()
	next.Pickup = coordinates(in.Lat, in.Lng)

	if err := s.tripRepo.Transition(ctx, &next, domain.TripStatusPending); err != nil {
		return nil, resolveConflict(ctx, "trip", err, s.tripStatus(trip.ID))
	}

	recordTransition("trip", string(next.Status))
	s.audit.record(ctx, events.TripStarted, next.ID, actor.ID, map[string]any{
		"contract_id": next.ContractID,
	})

	return &next, nil
}

// EndTrip moves an active trip to completed on behalf of its assigned driver.
func (s *TripService) EndTrip(ctx context.Context, actor domain.Actor, in TripPositionInput) (*domain.Trip, error) {
	trip, err := s.loadForDriver(ctx, actor, in.TripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusActive {
		return nil, &TransitionError{Entity: "trip", Current: string(trip.Status)}
	}

	next := *trip
	next.Status = domain.TripStatusCompleted
	next.ActualEnd = time.Now()
	next.Destination = coordinates(in.Lat, in.Lng)

	if err := s.tripRepo.Transition(ctx, &next, domain.TripStatusActive); err != nil {
		return nil, resolveConflict(ctx, "trip", err, s.tripStatus(trip.ID))
	}

	recordTransition("trip", string(next.Status))
	s.audit.record(ctx, events.TripCompleted, next.ID, actor.ID, map[string]any{
		"contract_id": next.ContractID,
	})

	return &next, nil
}

// GetTrip returns a trip to an admin or to its assigned driver.
func (s *TripService) GetTrip(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	if actor.Is(domain.RoleAdmin) {
		return s.load(ctx, tripID)
	}
	return s.loadForDriver(ctx, actor, tripID)
}

// ListMyTrips returns the calling driver's trips in schedule order.
func (s *TripService) ListMyTrips(ctx context.Context, actor domain.Actor) ([]*domain.Trip, error) {
	driver, err := s.callerDriver(ctx, actor)
	if err != nil {
		return nil, err
	}

	trips, err := s.tripRepo.ListByDriver(ctx, driver.ID)
	if err != nil {
		return nil, internal("list trips", err)
	}
	return trips, nil
}

// ListContractTrips returns a contract's trips to an admin or to the
// business that owns the contract's request.
func (s *TripService) ListContractTrips(ctx context.Context, actor domain.Actor, contractID string) ([]*domain.Trip, error) {
	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, lookupErr("contract", err)
	}

	if !actor.Is(domain.RoleAdmin) {
		req, err := s.requestRepo.GetByID(ctx, contract.RequestID)
		if err != nil {
			return nil, lookupErr("request", err)
		}
		if !actor.Is(domain.RoleBusiness) || !req.IsOwnedBy(actor.ID) {
			return nil, forbidden("contract belongs to another business")
		}
	}

	trips, err := s.tripRepo.ListByContract(ctx, contract.ID)
	if err != nil {
		return nil, internal("list trips", err)
	}
	return trips, nil
}

func (s *TripService) load(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, validationErr("trip id is required")
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, lookupErr("trip", err)
	}
	return trip, nil
}

// loadForDriver loads a trip and checks the caller is its assigned driver.
// The actor check runs before any state check.
func (s *TripService) loadForDriver(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	driver, err := s.callerDriver(ctx, actor)
	if err != nil {
		return nil, err
	}

	trip, err := s.load(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.DriverID != driver.ID {
		return nil, forbidden("trip is assigned to another driver")
	}

	return trip, nil
}

// callerDriver resolves the driver record of the authenticated subject.
func (s *TripService) callerDriver(ctx context.Context, actor domain.Actor) (*domain.Driver, error) {
	if err := requireRole(actor, domain.RoleDriver); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, forbidden("caller has no driver profile")
		}
		return nil, internal("load driver", err)
	}
	return driver, nil
}

func (s *TripService) tripStatus(id string) statusReader {
	return func(ctx context.Context) (string, error) {
		t, err := s.tripRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return string(t.Status), nil
	}
}

// coordinates records a position, defaulting missing components to zero.
func coordinates(lat, lng *float64) *domain.Coordinates {
	var c domain.Coordinates
	if lat != nil {
		c.Lat = *lat
	}
	if lng != nil {
		c.Lng = *lng
	}
	return &c
}
