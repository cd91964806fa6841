package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commute/internal/domain"
	"commute/internal/handler"
	"commute/internal/logging"
	"commute/internal/schedule"
	"commute/internal/service"
	"commute/internal/tests"
)

type staticVerifier map[string]domain.Actor

func (v staticVerifier) Verify(token string) (domain.Actor, error) {
	actor, ok := v[token]
	if !ok {
		return domain.Actor{}, errors.New("unknown token")
	}
	return actor, nil
}

type testServer struct {
	router   *gin.Engine
	requests *tests.MockRequestRepository
	trips    *tests.MockTripRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	requests := tests.NewMockRequestRepository()
	contracts := tests.NewMockContractRepository(requests)
	trips := tests.NewMockTripRepository()
	drivers := tests.NewMockDriverRepository()
	vehicles := tests.NewMockVehicleRepository()
	companies := tests.NewMockCompanyRepository()
	publisher := &tests.MockPublisher{}
	logger := logging.Discard()

	requests.HasDependents = contracts.References
	tx := tests.NewMockTxManager(requests, contracts)
	locks := tests.NewMockLockStore()

	companies.AddCompany(&domain.Company{ID: "company-1", Name: "Alpha Transport", OwnerID: "user-company-1"})
	drivers.AddDriver(&domain.Driver{ID: "driver-1", CompanyID: "company-1", UserID: "user-driver-1", Availability: domain.DriverAvailable})
	drivers.AddDriver(&domain.Driver{ID: "driver-2", CompanyID: "company-2", UserID: "user-driver-2", Availability: domain.DriverAvailable})
	vehicles.AddVehicle(&domain.Vehicle{ID: "vehicle-1", CompanyID: "company-1", PlateNumber: "A-100"})
	vehicles.AddVehicle(&domain.Vehicle{ID: "vehicle-2", CompanyID: "company-2", PlateNumber: "B-200"})

	requestService := service.NewRequestService(tx, requests, contracts, locks, publisher, logger)
	contractService := service.NewContractService(
		tx,
		requests, contracts, trips, drivers, vehicles, companies,
		locks,
		schedule.NewExpander(time.UTC, schedule.DefaultWindow),
		publisher,
		logger,
	)
	tripService := service.NewTripService(trips, contracts, requests, drivers, publisher, logger)
	fleetService := service.NewFleetService(companies, vehicles, drivers, contracts, logger)

	router := NewRouter(RouterDeps{
		RequestHandler:  handler.NewRequestHandler(requestService),
		ContractHandler: handler.NewContractHandler(contractService),
		TripHandler:     handler.NewTripHandler(tripService),
		FleetHandler:    handler.NewFleetHandler(fleetService),
		Verifier: staticVerifier{
			"admin":    {ID: "admin-1", Role: domain.RoleAdmin},
			"business": {ID: "biz-1", Role: domain.RoleBusiness},
			"driver-1": {ID: "user-driver-1", Role: domain.RoleDriver},
			"driver-2": {ID: "user-driver-2", Role: domain.RoleDriver},
			"company":  {ID: "user-company-1", Role: domain.RoleCompany},
		},
	})

	return &testServer{router: router, requests: requests, trips: trips}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/requests", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/requests", "forged", nil).Code)
}

func TestRouter_BrokerageFlow(t *testing.T) {
	s := newTestServer(t)

	// Business files a request.
	w := s.do(t, http.MethodPost, "/v1/requests", "business", handler.CreateRequestBody{
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 10,
		Frequency:      "daily",
		StartDate:      "2025-01-01",
		EndDate:        ptr("2025-01-05"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[handler.RequestResponse](t, w)
	assert.Equal(t, "pending", created.Status)

	// A proposal naming another company's vehicle is refused.
	w = s.do(t, http.MethodPost, "/v1/contracts", "admin", handler.ProposeContractBody{
		RequestID: created.ID,
		CompanyID: "company-1",
		DriverID:  "driver-1",
		VehicleID: "vehicle-2",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "vehicle", decode[handler.ErrorResponse](t, w).Which)

	// A matching proposal is priced by the engine.
	w = s.do(t, http.MethodPost, "/v1/contracts", "admin", handler.ProposeContractBody{
		RequestID: created.ID,
		CompanyID: "company-1",
		DriverID:  "driver-1",
		VehicleID: "vehicle-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contract := decode[handler.ContractResponse](t, w)
	assert.Equal(t, 200, contract.Price)

	// Business accepts; five daily trips are generated.
	w = s.do(t, http.MethodPost, "/v1/contracts/"+contract.ID+"/accept", "business", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[handler.AcceptContractResponse](t, w)
	assert.Equal(t, "active", accepted.Contract.Status)
	assert.Equal(t, "active", accepted.RequestStatus)
	assert.Equal(t, 5, accepted.TripsGenerated)
	assert.Empty(t, accepted.Warning)

	// Accepting again conflicts and names the current status.
	w = s.do(t, http.MethodPost, "/v1/contracts/"+contract.ID+"/accept", "business", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "active", decode[handler.ErrorResponse](t, w).Current)

	// The assigned driver sees the trips; another driver cannot start one.
	w = s.do(t, http.MethodGet, "/v1/trips/mine", "driver-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trips := decode[[]handler.TripResponse](t, w)
	require.Len(t, trips, 5)

	w = s.do(t, http.MethodPost, "/v1/trips/"+trips[0].ID+"/start", "driver-2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/v1/trips/"+trips[0].ID+"/start", "driver-1", handler.PositionBody{Lat: ptr(24.7)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[handler.TripResponse](t, w)
	assert.Equal(t, "active", started.Status)
	require.NotNil(t, started.Pickup)
	assert.Equal(t, 24.7, started.Pickup.Lat)
	assert.Zero(t, started.Pickup.Lng)

	w = s.do(t, http.MethodPost, "/v1/trips/"+trips[0].ID+"/end", "driver-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode[handler.TripResponse](t, w).Status)

	// The business can list the contract's trips.
	w = s.do(t, http.MethodGet, "/v1/contracts/"+contract.ID+"/trips", "business", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.TripResponse](t, w), 5)
}

func TestRouter_RequestValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/requests", "business", handler.CreateRequestBody{
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 10,
		Frequency:      "daily",
		StartDate:      "2025-01-05",
		EndDate:        ptr("2025-01-01"),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/requests", "business", handler.CreateRequestBody{
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 10,
		Frequency:      "daily",
		StartDate:      "next tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, s.requests.CreateCallCount)
}

func TestRouter_PriceQuote(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/contracts/price?employees_count=10&frequency=weekly", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[handler.PriceQuoteResponse](t, w)
	assert.Equal(t, 160, quote.Price)
	assert.Equal(t, 200, quote.BaseAmount)

	w = s.do(t, http.MethodGet, "/v1/contracts/price?employees_count=ten&frequency=weekly", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/contracts/price?employees_count=10&frequency=weekly", "business", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_AdminFleet(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/admin/companies/company-1/drivers?available=true", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	drivers := decode[[]handler.DriverResponse](t, w)
	require.Len(t, drivers, 1)
	assert.Equal(t, "driver-1", drivers[0].ID)

	w = s.do(t, http.MethodGet, "/v1/admin/companies/company-404/vehicles", "admin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UpdateRequestClearsEndDate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/requests", "business", handler.CreateRequestBody{
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 10,
		Frequency:      "daily",
		StartDate:      "2025-01-01T01:00:00+03:00",
		EndDate:        ptr("2025-01-05"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[handler.RequestResponse](t, w)
	assert.Equal(t, "2025-01-01T00:00:00Z", created.StartDate)

	// An omitted end_date leaves it alone.
	w = s.do(t, http.MethodPut, "/v1/requests/"+created.ID, "business", map[string]any{"employees_count": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2025-01-05T00:00:00Z", decode[handler.RequestResponse](t, w).EndDate)

	// An explicit null clears it.
	w = s.do(t, http.MethodPut, "/v1/requests/"+created.ID, "business", map[string]any{"end_date": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[handler.RequestResponse](t, w).EndDate)
	assert.Nil(t, s.requests.GetRequest(created.ID).EndDate)

	w = s.do(t, http.MethodPut, "/v1/requests/"+created.ID, "business", map[string]any{"end_date": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_OpenContractBlocksRequestRemoval(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/requests", "business", handler.CreateRequestBody{
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 10,
		Frequency:      "daily",
		StartDate:      "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[handler.RequestResponse](t, w)

	w = s.do(t, http.MethodPost, "/v1/contracts", "admin", handler.ProposeContractBody{
		RequestID: created.ID,
		CompanyID: "company-1",
		DriverID:  "driver-1",
		VehicleID: "vehicle-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contract := decode[handler.ContractResponse](t, w)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, "/v1/requests/"+created.ID, "business", nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/v1/requests/"+created.ID+"/cancel", "business", nil).Code)

	// After rejection the cancelled contract no longer blocks the delete.
	w = s.do(t, http.MethodPost, "/v1/contracts/"+contract.ID+"/reject", "business", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, "/v1/requests/"+created.ID, "business", nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Nil(t, s.requests.GetRequest(created.ID))
}

func TestRouter_CompanySelfService(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/company/me", "company", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "company-1", decode[handler.CompanyResponse](t, w).ID)

	w = s.do(t, http.MethodPost, "/v1/vehicles", "company", handler.VehicleBody{
		PlateNumber: ptr("A-300"),
		Model:       ptr("Coaster"),
		Capacity:    ptr(22),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	vehicle := decode[handler.VehicleResponse](t, w)
	assert.Equal(t, "company-1", vehicle.CompanyID)

	w = s.do(t, http.MethodPut, "/v1/vehicles/"+vehicle.ID, "company", handler.VehicleBody{Status: ptr("maintenance")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "maintenance", decode[handler.VehicleResponse](t, w).Status)

	w = s.do(t, http.MethodPut, "/v1/vehicles/vehicle-2", "company", handler.VehicleBody{Capacity: ptr(5)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/companies/company-1/vehicles", "company", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.VehicleResponse](t, w), 2)

	w = s.do(t, http.MethodGet, "/v1/companies/company-1/revenue", "company", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[handler.RevenueResponse](t, w)
	assert.Zero(t, report.TotalRevenue)
	assert.Len(t, report.Vehicles, 2)

	w = s.do(t, http.MethodPut, "/v1/drivers/driver-1/availability", "driver-1", handler.AvailabilityBody{AvailabilityStatus: "unavailable"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "unavailable", decode[handler.DriverResponse](t, w).AvailabilityStatus)

	w = s.do(t, http.MethodPut, "/v1/drivers/driver-1/availability", "driver-2", handler.AvailabilityBody{AvailabilityStatus: "available"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func ptr[T any](v T) *T { return &v }
