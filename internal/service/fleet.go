package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"commute/internal/domain"
	"commute/internal/repository"
)

// FleetService exposes transport company supply to the broker and lets
// companies and drivers manage their own side of it.
type FleetService struct {
	companyRepo repository.CompanyRepository
	vehicleRepo repository.VehicleRepository
	driverRepo  repository.DriverRepository
	contracts   repository.ContractRepository
	logger      *slog.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(
	companyRepo repository.CompanyRepository,
	vehicleRepo repository.VehicleRepository,
	driverRepo repository.DriverRepository,
	contractRepo repository.ContractRepository,
	logger *slog.Logger,
) *FleetService {
	return &FleetService{
		companyRepo: companyRepo,
		vehicleRepo: vehicleRepo,
		driverRepo:  driverRepo,
		contracts:   contractRepo,
		logger:      logger,
	}
}

// ListCompanies returns all transport companies.
func (s *FleetService) ListCompanies(ctx context.Context, actor domain.Actor) ([]*domain.Company, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, internal("list companies", err)
	}
	return companies, nil
}

// ListVehicles returns a company's vehicles to an admin or to the company's owner.
func (s *FleetService) ListVehicles(ctx context.Context, actor domain.Actor, companyID string) ([]*domain.Vehicle, error) {
	if err := s.checkCompany(ctx, actor, companyID); err != nil {
		return nil, err
	}

	vehicles, err := s.vehicleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, internal("list vehicles", err)
	}
	return vehicles, nil
}

// ListDrivers returns a company's drivers, optionally only the available ones.
func (s *FleetService) ListDrivers(ctx context.Context, actor domain.Actor, companyID string, availableOnly bool) ([]*domain.Driver, error) {
	if err := s.checkCompany(ctx, actor, companyID); err != nil {
		return nil, err
	}

	drivers, err := s.driverRepo.ListByCompany(ctx, companyID, availableOnly)
	if err != nil {
		return nil, internal("list drivers", err)
	}
	return drivers, nil
}

// MyCompany returns the company run by the calling company account.
func (s *FleetService) MyCompany(ctx context.Context, actor domain.Actor) (*domain.Company, error) {
	if err := requireRole(actor, domain.RoleCompany); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByOwnerID(ctx, actor.ID)
	if err != nil {
		return nil, lookupErr("company", err)
	}
	return company, nil
}

// VehicleInput contains the parameters for registering a vehicle.
type VehicleInput struct {
	PlateNumber string
	Model       string
	Capacity    int
	Status      string // empty means available
}

// AddVehicle registers a vehicle under the calling company.
func (s *FleetService) AddVehicle(ctx context.Context, actor domain.Actor, in VehicleInput) (*domain.Vehicle, error) {
	company, err := s.MyCompany(ctx, actor)
	if err != nil {
		return nil, err
	}

	vehicle := &domain.Vehicle{
		ID:          uuid.New().String(),
		CompanyID:   company.ID,
		PlateNumber: strings.TrimSpace(in.PlateNumber),
		Model:       strings.TrimSpace(in.Model),
		Capacity:    in.Capacity,
		Status:      domain.VehicleStatusAvailable,
	}
	if in.Status != "" {
		st, ok := domain.ParseVehicleStatus(in.Status)
		if !ok {
			return nil, validationErr("unknown vehicle status %q", in.Status)
		}
		vehicle.Status = st
	}

	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, vehicleWriteErr("create vehicle", err)
	}

	s.logger.InfoContext(ctx, "vehicle registered", "vehicle_id", vehicle.ID, "company_id", company.ID)
	return vehicle, nil
}

// VehicleUpdate holds the vehicle fields to change. Nil fields are left as they are.
type VehicleUpdate struct {
	PlateNumber *string
	Model       *string
	Capacity    *int
	Status      *string
}

// UpdateVehicle edits a vehicle owned by the calling company.
func (s *FleetService) UpdateVehicle(ctx context.Context, actor domain.Actor, id string, in VehicleUpdate) (*domain.Vehicle, error) {
	company, err := s.MyCompany(ctx, actor)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("vehicle", err)
	}
	if vehicle.CompanyID != company.ID {
		return nil, forbidden("vehicle belongs to another company")
	}

	if in.PlateNumber != nil {
		vehicle.PlateNumber = strings.TrimSpace(*in.PlateNumber)
	}
	if in.Model != nil {
		vehicle.Model = strings.TrimSpace(*in.Model)
	}
	if in.Capacity != nil {
		vehicle.Capacity = *in.Capacity
	}
	if in.Status != nil {
		st, ok := domain.ParseVehicleStatus(*in.Status)
		if !ok {
			return nil, validationErr("unknown vehicle status %q", *in.Status)
		}
		vehicle.Status = st
	}

	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, vehicleWriteErr("update vehicle", err)
	}

	return vehicle, nil
}

// SetDriverAvailability lets a driver mark themselves available or unavailable.
func (s *FleetService) SetDriverAvailability(ctx context.Context, actor domain.Actor, driverID, availability string) (*domain.Driver, error) {
	if err := requireRole(actor, domain.RoleDriver); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, lookupErr("driver", err)
	}
	if driver.UserID != actor.ID {
		return nil, forbidden("driver record belongs to another user")
	}

	a, ok := domain.ParseDriverAvailability(availability)
	if !ok {
		return nil, validationErr("availability_status must be available or unavailable")
	}

	if err := s.driverRepo.UpdateAvailability(ctx, driver.ID, a); err != nil {
		return nil, lookupErr("driver", err)
	}

	driver.Availability = a
	return driver, nil
}

// CompanyRevenue reports the value of a company's active contracts to its
// owner or to an admin.
func (s *FleetService) CompanyRevenue(ctx context.Context, actor domain.Actor, companyID string) (*domain.RevenueReport, error) {
	if err := s.checkCompany(ctx, actor, companyID); err != nil {
		return nil, err
	}

	contracts, err := s.contracts.ListByCompany(ctx, companyID, domain.ContractStatusActive)
	if err != nil {
		return nil, internal("list company contracts", err)
	}

	vehicles, err := s.vehicleRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, internal("list vehicles", err)
	}

	return BuildRevenueReport(companyID, contracts, vehicles, time.Now()), nil
}

// BuildRevenueReport sums active contract prices overall, for the calendar
// month containing now, and per vehicle. Vehicles are ordered by revenue.
func BuildRevenueReport(companyID string, active []*domain.Contract, vehicles []*domain.Vehicle, now time.Time) *domain.RevenueReport {
	report := &domain.RevenueReport{
		CompanyID:       companyID,
		ActiveContracts: len(active),
		Vehicles:        make([]domain.VehicleRevenue, 0, len(vehicles)),
	}

	index := make(map[string]int, len(vehicles))
	for i, v := range vehicles {
		index[v.ID] = i
		report.Vehicles = append(report.Vehicles, domain.VehicleRevenue{
			VehicleID:   v.ID,
			Model:       v.Model,
			PlateNumber: v.PlateNumber,
		})
	}

	year, month, _ := now.Date()
	for _, c := range active {
		report.TotalRevenue += c.Price

		if y, m, _ := c.CreatedAt.In(now.Location()).Date(); y == year && m == month {
			report.MonthlyRevenue += c.Price
		}

		if i, ok := index[c.VehicleID]; ok {
			report.Vehicles[i].ActiveContracts++
			report.Vehicles[i].Revenue += c.Price
		}
	}

	sort.SliceStable(report.Vehicles, func(i, j int) bool {
		return report.Vehicles[i].Revenue > report.Vehicles[j].Revenue
	})

	return report
}

// checkCompany admits an admin or the company's own owner.
func (s *FleetService) checkCompany(ctx context.Context, actor domain.Actor, companyID string) error {
	if !actor.Is(domain.RoleAdmin) && !actor.Is(domain.RoleCompany) {
		return forbidden("requires role admin or company")
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return lookupErr("company", err)
	}

	if actor.Is(domain.RoleCompany) && !company.IsOwnedBy(actor.ID) {
		return forbidden("company belongs to another account")
	}
	return nil
}

func validateVehicle(v *domain.Vehicle) error {
	if v.PlateNumber == "" {
		return validationErr("plate_number is required")
	}
	if v.Model == "" {
		return validationErr("model is required")
	}
	if v.Capacity < 1 {
		return validationErr("capacity must be at least 1")
	}
	return nil
}

func vehicleWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return validationErr("plate number already exists")
	case errors.Is(err, repository.ErrNotFound):
		return lookupErr("vehicle", err)
	default:
		return internal(op, err)
	}
}
