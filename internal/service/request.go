package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"commute/internal/domain"
	"commute/internal/events"
	"commute/internal/redis"
	"commute/internal/repository"
)

// RequestService handles the business side of transport requests.
type RequestService struct {
	tx          repository.TxManager
	requestRepo repository.RequestRepository
	contracts   repository.ContractRepository
	lockStore   redis.LockStoreInterface
	audit       auditor
	logger      *slog.Logger
}

// NewRequestService creates a new RequestService. lockStore is shared with
// ContractService so that cancel and delete never race a proposal; it may be nil.
func NewRequestService(
	tx repository.TxManager,
	requestRepo repository.RequestRepository,
	contractRepo repository.ContractRepository,
	lockStore redis.LockStoreInterface,
	publisher events.Publisher,
	logger *slog.Logger,
) *RequestService {
	return &RequestService{
		tx:          tx,
		requestRepo: requestRepo,
		contracts:   contractRepo,
		lockStore:   lockStore,
		audit:       newAuditor(publisher, logger),
		logger:      logger,
	}
}

// CreateRequestInput contains the parameters for creating a request.
type CreateRequestInput struct {
	PickupLocation string
	Destination    string
	EmployeesCount int
	Frequency      string
	StartDate      time.Time
	EndDate        *time.Time
	SpecialNotes   string
}

// CreateRequest records a new pending request owned by the calling business.
func (s *RequestService) CreateRequest(ctx context.Context, actor domain.Actor, in CreateRequestInput) (*domain.Request, error) {
	if err := requireRole(actor, domain.RoleBusiness); err != nil {
		return nil, err
	}

	freq, err := validateRequestFields(in.PickupLocation, in.Destination, in.EmployeesCount, in.Frequency)
	if err != nil {
		return nil, err
	}

	start, end := serviceWindow(in.StartDate, in.EndDate)
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	req := &domain.Request{
		ID:             uuid.New().String(),
		BusinessID:     actor.ID,
		PickupLocation: strings.TrimSpace(in.PickupLocation),
		Destination:    strings.TrimSpace(in.Destination),
		EmployeesCount: in.EmployeesCount,
		Frequency:      freq,
		StartDate:      start,
		EndDate:        end,
		SpecialNotes:   in.SpecialNotes,
		Status:         domain.RequestStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, internal("create request", err)
	}

	recordTransition("request", string(req.Status))
	s.audit.record(ctx, events.RequestCreated, req.ID, actor.ID, map[string]any{
		"employees_count": req.EmployeesCount,
		"frequency":       req.Frequency,
	})

	return req, nil
}

// GetRequest returns a request to its owner or to an admin.
func (s *RequestService) GetRequest(ctx context.Context, actor domain.Actor, id string) (*domain.Request, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.Is(domain.RoleAdmin) && !(actor.Is(domain.RoleBusiness) && req.IsOwnedBy(actor.ID)) {
		return nil, forbidden("request belongs to another business")
	}

	return req, nil
}

// ListMyRequests returns the calling business's requests, newest first.
func (s *RequestService) ListMyRequests(ctx context.Context, actor domain.Actor) ([]*domain.Request, error) {
	if err := requireRole(actor, domain.RoleBusiness); err != nil {
		return nil, err
	}

	reqs, err := s.requestRepo.List(ctx, repository.RequestFilter{BusinessID: actor.ID})
	if err != nil {
		return nil, internal("list requests", err)
	}
	return reqs, nil
}

// ListRequests returns all requests for an admin, optionally filtered by status.
func (s *RequestService) ListRequests(ctx context.Context, actor domain.Actor, status string) ([]*domain.Request, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	var filter repository.RequestFilter
	if status != "" {
		st, ok := domain.ParseRequestStatus(status)
		if !ok {
			return nil, validationErr("unknown status %q", status)
		}
		filter.Status = st
	}

	reqs, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, internal("list requests", err)
	}
	return reqs, nil
}

// UpdateRequestInput holds the fields to change. Nil fields are left as they are.
type UpdateRequestInput struct {
	PickupLocation *string
	Destination    *string
	EmployeesCount *int
	Frequency      *string
	StartDate      *time.Time
	EndDate        *time.Time
	ClearEndDate   bool // drop the end date so the default window applies
	SpecialNotes   *string
}

// UpdateRequest edits a pending request on behalf of its owner.
func (s *RequestService) UpdateRequest(ctx context.Context, actor domain.Actor, id string, in UpdateRequestInput) (*domain.Request, error) {
	req, err := s.loadOwnedPending(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	changes, err := buildRequestUpdate(req, in)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.Update(ctx, id, domain.RequestStatusPending, changes); err != nil {
		return nil, resolveConflict(ctx, "request", err, s.currentStatus(id))
	}

	return s.load(ctx, id)
}

// DeleteRequest removes a pending request on behalf of its owner. Contracts
// already cancelled for it are removed with it; an open contract blocks the delete.
func (s *RequestService) DeleteRequest(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.loadOwnedPending(ctx, actor, id); err != nil {
		return err
	}

	err := withRequestLock(ctx, s.lockStore, s.logger, id, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.refuseOpenContract(ctx, id); err != nil {
				return err
			}

			if err := s.contracts.DeleteCancelledByRequestID(ctx, id); err != nil {
				return internal("delete cancelled contracts", err)
			}

			if err := s.requestRepo.Delete(ctx, id, domain.RequestStatusPending); err != nil {
				if errors.Is(err, repository.ErrReferenced) {
					return ErrContractExists
				}
				return resolveConflict(ctx, "request", err, s.currentStatus(id))
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "request deleted", "request_id", id, "business_id", actor.ID)
	return nil
}

// CancelRequest moves a pending request to cancelled on behalf of its owner.
// A pending contract must be rejected first.
func (s *RequestService) CancelRequest(ctx context.Context, actor domain.Actor, id string) (*domain.Request, error) {
	req, err := s.loadOwnedPending(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	err = withRequestLock(ctx, s.lockStore, s.logger, id, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.refuseOpenContract(ctx, id); err != nil {
				return err
			}

			if err := s.requestRepo.UpdateStatus(ctx, id, domain.RequestStatusPending, domain.RequestStatusCancelled); err != nil {
				return resolveConflict(ctx, "request", err, s.currentStatus(id))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	req.Status = domain.RequestStatusCancelled
	recordTransition("request", string(req.Status))
	s.audit.record(ctx, events.RequestCancelled, req.ID, actor.ID, nil)

	return req, nil
}

func (s *RequestService) refuseOpenContract(ctx context.Context, requestID string) error {
	open, err := s.contracts.GetOpenByRequestID(ctx, requestID)
	if err != nil {
		return internal("load open contract", err)
	}
	if open != nil {
		return fmt.Errorf("%w: contract %s is %s", ErrContractExists, open.ID, open.Status)
	}
	return nil
}

func (s *RequestService) load(ctx context.Context, id string) (*domain.Request, error) {
	if id == "" {
		return nil, validationErr("request id is required")
	}

	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("request", err)
	}
	return req, nil
}

// loadOwnedPending enforces the owner check before the state check.
func (s *RequestService) loadOwnedPending(ctx context.Context, actor domain.Actor, id string) (*domain.Request, error) {
	if err := requireRole(actor, domain.RoleBusiness); err != nil {
		return nil, err
	}

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !req.IsOwnedBy(actor.ID) {
		return nil, forbidden("request belongs to another business")
	}

	if req.Status != domain.RequestStatusPending {
		return nil, &TransitionError{Entity: "request", Current: string(req.Status)}
	}

	return req, nil
}

func (s *RequestService) currentStatus(id string) statusReader {
	return func(ctx context.Context) (string, error) {
		req, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return string(req.Status), nil
	}
}

func validateRequestFields(pickup, destination string, employees int, frequency string) (domain.Frequency, error) {
	if strings.TrimSpace(pickup) == "" {
		return "", validationErr("pickup_location is required")
	}
	if strings.TrimSpace(destination) == "" {
		return "", validationErr("destination is required")
	}
	if employees < 1 {
		return "", validationErr("employees_count must be at least 1")
	}

	freq, ok := domain.ParseFrequency(frequency)
	if !ok {
		return "", validationErr("frequency must be daily, weekly or monthly")
	}

	return freq, nil
}

// serviceWindow reduces the window bounds to the calendar days they name.
func serviceWindow(start time.Time, end *time.Time) (time.Time, *time.Time) {
	if !start.IsZero() {
		start = domain.ServiceDate(start)
	}
	if end != nil {
		e := domain.ServiceDate(*end)
		end = &e
	}
	return start, end
}

func validateWindow(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return validationErr("start_date is required")
	}
	if end != nil && end.Before(start) {
		return validationErr("end_date must not be before start_date")
	}
	return nil
}

// buildRequestUpdate validates in against the stored request and returns the
// changes to persist.
func buildRequestUpdate(current *domain.Request, in UpdateRequestInput) (repository.RequestUpdate, error) {
	pickup, destination := current.PickupLocation, current.Destination
	employees, frequency := current.EmployeesCount, string(current.Frequency)
	start, end := current.StartDate, current.EndDate

	var changes repository.RequestUpdate
	if in.PickupLocation != nil {
		pickup = strings.TrimSpace(*in.PickupLocation)
		changes.PickupLocation = &pickup
	}
	if in.Destination != nil {
		destination = strings.TrimSpace(*in.Destination)
		changes.Destination = &destination
	}
	if in.EmployeesCount != nil {
		employees = *in.EmployeesCount
		changes.EmployeesCount = in.EmployeesCount
	}
	if in.Frequency != nil {
		frequency = *in.Frequency
	}
	if in.StartDate != nil {
		start = domain.ServiceDate(*in.StartDate)
		changes.StartDate = &start
	}
	if in.EndDate != nil {
		e := domain.ServiceDate(*in.EndDate)
		end = &e
		changes.EndDate = end
	} else if in.ClearEndDate {
		end = nil
		changes.ClearEndDate = true
	}
	changes.SpecialNotes = in.SpecialNotes

	freq, err := validateRequestFields(pickup, destination, employees, frequency)
	if err != nil {
		return repository.RequestUpdate{}, err
	}
	if in.Frequency != nil {
		changes.Frequency = &freq
	}

	if err := validateWindow(start, end); err != nil {
		return repository.RequestUpdate{}, err
	}

	return changes, nil
}
