package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"

	"commute/internal/domain"
	"commute/internal/events"
	"commute/internal/metrics"
	"commute/internal/pricing"
	"commute/internal/redis"
	"commute/internal/repository"
	"commute/internal/schedule"
)

// ContractService brokers requests into contracts and drives their acceptance.
type ContractService struct {
	tx          repository.TxManager
	requestRepo repository.RequestRepository
	contracts   repository.ContractRepository
	tripRepo    repository.TripRepository
	driverRepo  repository.DriverRepository
	vehicleRepo repository.VehicleRepository
	companyRepo repository.CompanyRepository
	lockStore   redis.LockStoreInterface
	expander    *schedule.Expander
	audit       auditor
	logger      *slog.Logger
}

// NewContractService creates a new ContractService. lockStore may be nil, in
// which case concurrent proposals are serialized by the database alone.
func NewContractService(
	tx repository.TxManager,
	requestRepo repository.RequestRepository,
	contractRepo repository.ContractRepository,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
	companyRepo repository.CompanyRepository,
	lockStore redis.LockStoreInterface,
	expander *schedule.Expander,
	publisher events.Publisher,
	logger *slog.Logger,
) *ContractService {
	if expander == nil {
		expander = schedule.NewExpander(time.UTC, schedule.DefaultWindow)
	}
	return &ContractService{
		tx:          tx,
		requestRepo: requestRepo,
		contracts:   contractRepo,
		tripRepo:    tripRepo,
		driverRepo:  driverRepo,
		vehicleRepo: vehicleRepo,
		companyRepo: companyRepo,
		lockStore:   lockStore,
		expander:    expander,
		audit:       newAuditor(publisher, logger),
		logger:      logger,
	}
}

// QuotePrice prices a prospective contract for the broker.
func (s *ContractService) QuotePrice(actor domain.Actor, employees int, frequency string) (pricing.Quote, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return pricing.Quote{}, err
	}
	if employees < 1 {
		return pricing.Quote{}, validationErr("employees_count must be at least 1")
	}
	freq, ok := domain.ParseFrequency(frequency)
	if !ok {
		return pricing.Quote{}, validationErr("frequency must be daily, weekly or monthly")
	}
	return pricing.NewQuote(employees, freq), nil
}

// ProposeContractInput contains the parameters for proposing a contract.
type ProposeContractInput struct {
	RequestID  string
	CompanyID  string
	DriverID   string
	VehicleID  string
	Price      int // zero means price from the request
	AdminNotes string
}

// ProposeContract creates a pending contract for a pending request. Nothing is
// written unless the driver and vehicle both belong to the company.
func (s *ContractService) ProposeContract(ctx context.Context, actor domain.Actor, in ProposeContractInput) (*domain.Contract, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if err := validateProposal(in); err != nil {
		return nil, err
	}

	var contract *domain.Contract
	err := withRequestLock(ctx, s.lockStore, s.logger, in.RequestID, func() error {
		var err error
		contract, err = s.propose(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordTransition("contract", string(contract.Status))
	s.audit.record(ctx, events.ContractProposed, contract.ID, actor.ID, map[string]any{
		"request_id": contract.RequestID,
		"price":      contract.Price,
	})

	return contract, nil
}

// propose runs the checks and the insert of ProposeContract under the request lock.
func (s *ContractService) propose(ctx context.Context, in ProposeContractInput) (*domain.Contract, error) {
	req, err := s.requestRepo.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, lookupErr("request", err)
	}

	if req.Status != domain.RequestStatusPending {
		return nil, &TransitionError{Entity: "request", Current: string(req.Status)}
	}

	open, err := s.contracts.GetOpenByRequestID(ctx, req.ID)
	if err != nil {
		return nil, internal("load open contract", err)
	}
	if open != nil {
		return nil, ErrContractExists
	}

	if _, err := s.companyRepo.GetByID(ctx, in.CompanyID); err != nil {
		return nil, lookupErr("company", err)
	}

	driver, err := s.driverRepo.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, lookupErr("driver", err)
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, lookupErr("vehicle", err)
	}

	if err := ValidateAssignment(in.CompanyID, driver, vehicle); err != nil {
		return nil, err
	}

	price := in.Price
	if price == 0 {
		price = pricing.Price(req.EmployeesCount, req.Frequency)
	}

	contract := &domain.Contract{
		ID:         uuid.New().String(),
		RequestID:  req.ID,
		CompanyID:  in.CompanyID,
		DriverID:   driver.ID,
		VehicleID:  vehicle.ID,
		Price:      price,
		AdminNotes: strings.TrimSpace(in.AdminNotes),
		Status:     domain.ContractStatusPending,
		CreatedAt:  time.Now(),
	}

	if err := s.contracts.Create(ctx, contract); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrContractExists
		}
		return nil, internal("create contract", err)
	}

	return contract, nil
}

// AcceptResult contains the outcome of accepting a contract.
type AcceptResult struct {
	Contract       *domain.Contract
	Request        *domain.Request
	TripsExpected  int
	TripsGenerated int

	// Warning is a *PartialFailureError when fewer trips were created than
	// expected. The acceptance itself is committed regardless.
	Warning error
}

// AcceptContract activates a pending contract and its request, then
// materializes one trip per scheduled occurrence.
func (s *ContractService) AcceptContract(ctx context.Context, actor domain.Actor, contractID string) (*AcceptResult, error) {
	contract, req, err := s.loadForDecision(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.contracts.UpdateStatus(ctx, contract.ID, domain.ContractStatusPending, domain.ContractStatusActive); err != nil {
			return resolveConflict(ctx, "contract", err, s.contractStatus(contract.ID))
		}
		if err := s.requestRepo.UpdateStatus(ctx, req.ID, domain.RequestStatusPending, domain.RequestStatusActive); err != nil {
			return resolveConflict(ctx, "request", err, s.requestStatus(req.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	contract.Status = domain.ContractStatusActive
	req.Status = domain.RequestStatusActive
	recordTransition("contract", string(contract.Status))
	recordTransition("request", string(req.Status))

	result := &AcceptResult{Contract: contract, Request: req}
	result.TripsExpected, result.TripsGenerated = s.materializeTrips(ctx, contract, req)
	if result.TripsGenerated < result.TripsExpected {
		result.Warning = &PartialFailureError{Expected: result.TripsExpected, Created: result.TripsGenerated}
		s.logger.WarnContext(ctx, "trip materialization incomplete",
			"contract_id", contract.ID,
			"expected", result.TripsExpected,
			"created", result.TripsGenerated,
		)
	}

	s.audit.record(ctx, events.ContractAccepted, contract.ID, actor.ID, map[string]any{
		"request_id":      req.ID,
		"trips_expected":  result.TripsExpected,
		"trips_generated": result.TripsGenerated,
	})

	return result, nil
}

// RejectContract cancels a pending contract. The request stays pending so it
// can be brokered again.
func (s *ContractService) RejectContract(ctx context.Context, actor domain.Actor, contractID string) (*domain.Contract, error) {
	contract, req, err := s.loadForDecision(ctx, actor, contractID)
	if err != nil {
		return nil, err
	}

	if err := s.contracts.UpdateStatus(ctx, contract.ID, domain.ContractStatusPending, domain.ContractStatusCancelled); err != nil {
		return nil, resolveConflict(ctx, "contract", err, s.contractStatus(contract.ID))
	}

	contract.Status = domain.ContractStatusCancelled
	recordTransition("contract", string(contract.Status))
	s.audit.record(ctx, events.ContractRejected, contract.ID, actor.ID, map[string]any{
		"request_id": req.ID,
	})

	return contract, nil
}

// GetContract returns a contract with its references to an admin or to the
// business that owns its request.
func (s *ContractService) GetContract(ctx context.Context, actor domain.Actor, contractID string) (*domain.ContractDetails, error) {
	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.GetByID(ctx, contract.RequestID)
	if err != nil {
		return nil, lookupErr("request", err)
	}

	if !actor.Is(domain.RoleAdmin) && !(actor.Is(domain.RoleBusiness) && req.IsOwnedBy(actor.ID)) {
		return nil, forbidden("contract belongs to another business")
	}

	details := &domain.ContractDetails{Contract: contract, Request: req}
	if details.Company, err = s.companyRepo.GetByID(ctx, contract.CompanyID); err != nil {
		return nil, lookupErr("company", err)
	}
	if details.Driver, err = s.driverRepo.GetByID(ctx, contract.DriverID); err != nil {
		return nil, lookupErr("driver", err)
	}
	if details.Vehicle, err = s.vehicleRepo.GetByID(ctx, contract.VehicleID); err != nil {
		return nil, lookupErr("vehicle", err)
	}

	return details, nil
}

// ListPendingContracts returns contracts awaiting a business decision.
func (s *ContractService) ListPendingContracts(ctx context.Context, actor domain.Actor) ([]*domain.Contract, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	contracts, err := s.contracts.ListByStatus(ctx, domain.ContractStatusPending)
	if err != nil {
		return nil, internal("list contracts", err)
	}
	return contracts, nil
}

// ListMyContracts returns the contracts proposed for the calling business.
func (s *ContractService) ListMyContracts(ctx context.Context, actor domain.Actor) ([]*domain.Contract, error) {
	if err := requireRole(actor, domain.RoleBusiness); err != nil {
		return nil, err
	}

	contracts, err := s.contracts.ListByBusiness(ctx, actor.ID)
	if err != nil {
		return nil, internal("list contracts", err)
	}
	return contracts, nil
}

// loadForDecision checks role, existence, ownership and state, in that order.
func (s *ContractService) loadForDecision(ctx context.Context, actor domain.Actor, contractID string) (*domain.Contract, *domain.Request, error) {
	if err := requireRole(actor, domain.RoleBusiness); err != nil {
		return nil, nil, err
	}

	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.requestRepo.GetByID(ctx, contract.RequestID)
	if err != nil {
		return nil, nil, lookupErr("request", err)
	}

	if !req.IsOwnedBy(actor.ID) {
		return nil, nil, forbidden("contract belongs to another business")
	}

	if contract.Status != domain.ContractStatusPending {
		return nil, nil, &TransitionError{Entity: "contract", Current: string(contract.Status)}
	}

	return contract, req, nil
}

func (s *ContractService) loadContract(ctx context.Context, id string) (*domain.Contract, error) {
	if id == "" {
		return nil, validationErr("contract id is required")
	}

	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("contract", err)
	}
	return contract, nil
}

// materializeTrips persists one pending trip per occurrence. Each insert is
// independent: a failed occurrence is logged and skipped.
func (s *ContractService) materializeTrips(ctx context.Context, contract *domain.Contract, req *domain.Request) (expected, created int) {
	defer newrelic.FromContext(ctx).StartSegment("contract.materializeTrips").End()

	occurrences := s.expander.Expand(req.StartDate, req.EndDate, req.Frequency)
	now := time.Now()

	for _, at := range occurrences {
		trip := &domain.Trip{
			ID:          uuid.New().String(),
			ContractID:  contract.ID,
			DriverID:    contract.DriverID,
			ScheduledAt: at,
			Status:      domain.TripStatusPending,
			CreatedAt:   now,
		}

		if err := s.tripRepo.Create(ctx, trip); err != nil {
			metrics.TripGenerationFailures.Inc()
			s.logger.ErrorContext(ctx, "failed to create trip",
				"contract_id", contract.ID,
				"scheduled_at", at,
				"error", err,
			)
			continue
		}

		metrics.TripsGenerated.Inc()
		created++
	}

	return len(occurrences), created
}

func (s *ContractService) contractStatus(id string) statusReader {
	return func(ctx context.Context) (string, error) {
		c, err := s.contracts.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return string(c.Status), nil
	}
}

func (s *ContractService) requestStatus(id string) statusReader {
	return func(ctx context.Context) (string, error) {
		r, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return string(r.Status), nil
	}
}

func validateProposal(in ProposeContractInput) error {
	switch {
	case in.RequestID == "":
		return validationErr("request_id is required")
	case in.CompanyID == "":
		return validationErr("company_id is required")
	case in.DriverID == "":
		return validationErr("driver_id is required")
	case in.VehicleID == "":
		return validationErr("vehicle_id is required")
	case in.Price < 0:
		return validationErr("price must be positive")
	}
	return nil
}
