package tests

import (
	"time"

	"commute/internal/domain"
	"commute/internal/logging"
	"commute/internal/schedule"
	"commute/internal/service"
)

var (
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	business = domain.Actor{ID: "biz-1", Role: domain.RoleBusiness}
	rival    = domain.Actor{ID: "biz-2", Role: domain.RoleBusiness}
	driverA  = domain.Actor{ID: "user-driver-1", Role: domain.RoleDriver}
	driverB  = domain.Actor{ID: "user-driver-2", Role: domain.RoleDriver}
	alphaOps = domain.Actor{ID: "user-company-1", Role: domain.RoleCompany}
	betaOps  = domain.Actor{ID: "user-company-2", Role: domain.RoleCompany}
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// brokerage is a fully wired set of services over in-memory repositories.
type brokerage struct {
	requests  *MockRequestRepository
	contracts *MockContractRepository
	trips     *MockTripRepository
	drivers   *MockDriverRepository
	vehicles  *MockVehicleRepository
	companies *MockCompanyRepository
	locks     *MockLockStore
	tx        *MockTxManager
	publisher *MockPublisher

	requestService  *service.RequestService
	contractService *service.ContractService
	tripService     *service.TripService
	fleetService    *service.FleetService
}

// newBrokerage seeds two companies, each with one driver and one vehicle.
// driverA drives for company-1 and driverB for company-2. alphaOps runs
// company-1 and betaOps runs company-2.
func newBrokerage() *brokerage {
	b := &brokerage{
		requests:  NewMockRequestRepository(),
		trips:     NewMockTripRepository(),
		drivers:   NewMockDriverRepository(),
		vehicles:  NewMockVehicleRepository(),
		companies: NewMockCompanyRepository(),
		locks:     NewMockLockStore(),
		publisher: &MockPublisher{},
	}
	b.contracts = NewMockContractRepository(b.requests)
	b.requests.HasDependents = b.contracts.References
	b.tx = NewMockTxManager(b.requests, b.contracts)

	b.companies.AddCompany(&domain.Company{ID: "company-1", Name: "Alpha Transport", OwnerID: alphaOps.ID, Status: domain.CompanyStatusActive})
	b.companies.AddCompany(&domain.Company{ID: "company-2", Name: "Beta Shuttles", OwnerID: betaOps.ID, Status: domain.CompanyStatusActive})
	b.drivers.AddDriver(&domain.Driver{ID: "driver-1", CompanyID: "company-1", UserID: driverA.ID, Availability: domain.DriverAvailable})
	b.drivers.AddDriver(&domain.Driver{ID: "driver-2", CompanyID: "company-2", UserID: driverB.ID, Availability: domain.DriverAvailable})
	b.vehicles.AddVehicle(&domain.Vehicle{ID: "vehicle-1", CompanyID: "company-1", PlateNumber: "A-100", Capacity: 14})
	b.vehicles.AddVehicle(&domain.Vehicle{ID: "vehicle-2", CompanyID: "company-2", PlateNumber: "B-200", Capacity: 30})

	logger := logging.Discard()
	expander := schedule.NewExpander(time.UTC, schedule.DefaultWindow)

	b.requestService = service.NewRequestService(b.tx, b.requests, b.contracts, b.locks, b.publisher, logger)
	b.contractService = service.NewContractService(
		b.tx,
		b.requests,
		b.contracts,
		b.trips,
		b.drivers,
		b.vehicles,
		b.companies,
		b.locks,
		expander,
		b.publisher,
		logger,
	)
	b.tripService = service.NewTripService(b.trips, b.contracts, b.requests, b.drivers, b.publisher, logger)
	b.fleetService = service.NewFleetService(b.companies, b.vehicles, b.drivers, b.contracts, logger)
	return b
}

// addRequest stores a pending daily request owned by business running
// 2025-01-01 through 2025-01-10.
func (b *brokerage) addRequest(id string, status domain.RequestStatus) *domain.Request {
	end := date(2025, time.January, 10)
	req := &domain.Request{
		ID:             id,
		BusinessID:     business.ID,
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 10,
		Frequency:      domain.FrequencyDaily,
		StartDate:      date(2025, time.January, 1),
		EndDate:        &end,
		Status:         status,
		CreatedAt:      time.Now(),
	}
	b.requests.AddRequest(req)
	return req
}

func (b *brokerage) addContract(id, requestID string, status domain.ContractStatus) *domain.Contract {
	c := &domain.Contract{
		ID:        id,
		RequestID: requestID,
		CompanyID: "company-1",
		DriverID:  "driver-1",
		VehicleID: "vehicle-1",
		Price:     200,
		Status:    status,
		CreatedAt: time.Now(),
	}
	b.contracts.AddContract(c)
	return c
}

func (b *brokerage) addTrip(id, contractID string, status domain.TripStatus) *domain.Trip {
	t := &domain.Trip{
		ID:          id,
		ContractID:  contractID,
		DriverID:    "driver-1",
		ScheduledAt: time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC),
		Status:      status,
		CreatedAt:   time.Now(),
	}
	b.trips.AddTrip(t)
	return t
}

func proposal(requestID string) service.ProposeContractInput {
	return service.ProposeContractInput{
		RequestID: requestID,
		CompanyID: "company-1",
		DriverID:  "driver-1",
		VehicleID: "vehicle-1",
	}
}

func ptr[T any](v T) *T { return &v }
