package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"commute/internal/domain"
	"commute/internal/events"
	"commute/internal/redis"
	"commute/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRequestRepository is a mock implementation of RequestRepository.
// Conditional writes check and write under one lock, like the SQL
// "WHERE status = $expected" they stand in for.
type MockRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.Request

	// Counters for verification
	CreateCallCount       int32
	UpdateCallCount       int32
	UpdateStatusCallCount int32
	DeleteCallCount       int32

	// Error injection
	CreateError       error
	UpdateStatusError error

	// HasDependents stands in for the contracts.request_id foreign key.
	// Delete fails with ErrReferenced while it reports true.
	HasDependents func(requestID string) bool
}

// NewMockRequestRepository creates a new mock request repository.
func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{
		requests: make(map[string]*domain.Request),
	}
}

// AddRequest adds a request to the mock repository.
func (m *MockRequestRepository) AddRequest(req *domain.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.Request) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *req
	return &copy, nil
}

func (m *MockRequestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Request, 0, len(m.requests))
	for _, r := range m.requests {
		if filter.BusinessID != "" && r.BusinessID != filter.BusinessID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockRequestRepository) Update(ctx context.Context, id string, expected domain.RequestStatus, changes repository.RequestUpdate) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return repository.ErrStatusConflict
	}
	if req.Status != expected {
		return repository.ErrStatusConflict
	}
	if changes.PickupLocation != nil {
		req.PickupLocation = *changes.PickupLocation
	}
	if changes.Destination != nil {
		req.Destination = *changes.Destination
	}
	if changes.EmployeesCount != nil {
		req.EmployeesCount = *changes.EmployeesCount
	}
	if changes.Frequency != nil {
		req.Frequency = *changes.Frequency
	}
	if changes.StartDate != nil {
		req.StartDate = *changes.StartDate
	}
	if changes.EndDate != nil {
		end := *changes.EndDate
		req.EndDate = &end
	} else if changes.ClearEndDate {
		req.EndDate = nil
	}
	if changes.SpecialNotes != nil {
		req.SpecialNotes = *changes.SpecialNotes
	}
	return nil
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != from {
		return repository.ErrStatusConflict
	}
	req.Status = to
	return nil
}

func (m *MockRequestRepository) Delete(ctx context.Context, id string, expected domain.RequestStatus) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	referenced := m.HasDependents != nil && m.HasDependents(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != expected {
		return repository.ErrStatusConflict
	}
	if referenced {
		return repository.ErrReferenced
	}
	delete(m.requests, id)
	return nil
}

// Snapshot captures the stored requests and returns a func that puts them back.
func (m *MockRequestRepository) Snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]*domain.Request, len(m.requests))
	for id, r := range m.requests {
		copy := *r
		saved[id] = &copy
	}
	m.mu.RUnlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.requests = saved
	}
}

// GetRequest returns the stored request for test assertions.
func (m *MockRequestRepository) GetRequest(id string) *domain.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil
	}
	copy := *req
	return &copy
}

// SetStatus overwrites a request's status, simulating a concurrent writer.
func (m *MockRequestRepository) SetStatus(id string, status domain.RequestStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		req.Status = status
	}
}

// ──────────────────────────────────────────────
// MOCK CONTRACT REPOSITORY
// ──────────────────────────────────────────────

// MockContractRepository is a mock implementation of ContractRepository.
// Create enforces one non-cancelled contract per request.
type MockContractRepository struct {
	mu        sync.RWMutex
	contracts map[string]*domain.Contract
	requests  *MockRequestRepository

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32
	DeleteCallCount       int32

	// Error injection
	CreateError error
}

// NewMockContractRepository creates a new mock contract repository. requests
// backs ListByBusiness and may be nil.
func NewMockContractRepository(requests *MockRequestRepository) *MockContractRepository {
	return &MockContractRepository{
		contracts: make(map[string]*domain.Contract),
		requests:  requests,
	}
}

// AddContract adds a contract to the mock repository.
func (m *MockContractRepository) AddContract(contract *domain.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[contract.ID] = contract
}

func (m *MockContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contracts {
		if c.RequestID == contract.RequestID && c.Status != domain.ContractStatusCancelled {
			return repository.ErrDuplicate
		}
	}
	stored := *contract
	m.contracts[contract.ID] = &stored
	return nil
}

func (m *MockContractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (m *MockContractRepository) GetOpenByRequestID(ctx context.Context, requestID string) (*domain.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contracts {
		if c.RequestID == requestID && c.Status != domain.ContractStatusCancelled {
			copy := *c
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockContractRepository) ListByStatus(ctx context.Context, status domain.ContractStatus) ([]*domain.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Contract, 0)
	for _, c := range m.contracts {
		if c.Status == status {
			copy := *c
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockContractRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.Contract, error) {
	if m.requests == nil {
		return nil, errors.New("mock contract repository has no request repository")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Contract, 0)
	for _, c := range m.contracts {
		req := m.requests.GetRequest(c.RequestID)
		if req != nil && req.BusinessID == businessID {
			copy := *c
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockContractRepository) ListByCompany(ctx context.Context, companyID string, status domain.ContractStatus) ([]*domain.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Contract, 0)
	for _, c := range m.contracts {
		if c.CompanyID == companyID && c.Status == status {
			copy := *c
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockContractRepository) DeleteCancelledByRequestID(ctx context.Context, requestID string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.contracts {
		if c.RequestID == requestID && c.Status == domain.ContractStatusCancelled {
			delete(m.contracts, id)
		}
	}
	return nil
}

func (m *MockContractRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ContractStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok || c.Status != from {
		return repository.ErrStatusConflict
	}
	c.Status = to
	return nil
}

// GetContract returns the stored contract for test assertions.
func (m *MockContractRepository) GetContract(id string) *domain.Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil
	}
	copy := *c
	return &copy
}

// CountContracts returns the number of stored contracts.
func (m *MockContractRepository) CountContracts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contracts)
}

// References reports whether any contract, cancelled or not, points at the request.
func (m *MockContractRepository) References(requestID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contracts {
		if c.RequestID == requestID {
			return true
		}
	}
	return false
}

// Snapshot captures the stored contracts and returns a func that puts them back.
func (m *MockContractRepository) Snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]*domain.Contract, len(m.contracts))
	for id, c := range m.contracts {
		copy := *c
		saved[id] = &copy
	}
	m.mu.RUnlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.contracts = saved
	}
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount     int32
	TransitionCallCount int32

	// Error injection. When FailCreateAfter is positive, every Create call
	// after the first FailCreateAfter calls fails.
	CreateError     error
	FailCreateAfter int32
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	n := atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	if m.FailCreateAfter > 0 && n > m.FailCreateAfter {
		return fmt.Errorf("insert trip %d: connection reset", n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *trip
	m.trips[trip.ID] = &stored
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.DriverID == driverID }), nil
}

func (m *MockTripRepository) ListByContract(ctx context.Context, contractID string) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.ContractID == contractID }), nil
}

func (m *MockTripRepository) Transition(ctx context.Context, trip *domain.Trip, from domain.TripStatus) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok || stored.Status != from {
		return repository.ErrStatusConflict
	}
	next := *trip
	m.trips[trip.ID] = &next
	return nil
}

func (m *MockTripRepository) list(match func(*domain.Trip) bool) []*domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if match(t) {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil
	}
	copy := *trip
	return &copy
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK FLEET REPOSITORIES
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	GetByIDCallCount int32
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (m *MockDriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.UserID != "" && d.UserID == userID {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) ListByCompany(ctx context.Context, companyID string, availableOnly bool) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0)
	for _, d := range m.drivers {
		if d.CompanyID != companyID {
			continue
		}
		if availableOnly && d.Availability != domain.DriverAvailable {
			continue
		}
		copy := *d
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockDriverRepository) UpdateAvailability(ctx context.Context, id string, availability domain.DriverAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Availability = availability
	return nil
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil
	}
	copy := *d
	return &copy
}

// MockVehicleRepository is a mock implementation of VehicleRepository.
// Writes enforce unique plate numbers.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plateTaken(vehicle.PlateNumber, vehicle.ID) {
		return repository.ErrDuplicate
	}
	stored := *vehicle
	m.vehicles[vehicle.ID] = &stored
	return nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[vehicle.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.plateTaken(vehicle.PlateNumber, vehicle.ID) {
		return repository.ErrDuplicate
	}
	stored := *vehicle
	m.vehicles[vehicle.ID] = &stored
	return nil
}

func (m *MockVehicleRepository) plateTaken(plate, exceptID string) bool {
	for id, v := range m.vehicles {
		if id != exceptID && v.PlateNumber == plate {
			return true
		}
	}
	return false
}

// GetVehicle returns the stored vehicle for test assertions.
func (m *MockVehicleRepository) GetVehicle(id string) *domain.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil
	}
	copy := *v
	return &copy
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (m *MockVehicleRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.CompanyID == companyID {
			copy := *v
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// MockCompanyRepository is a mock implementation of CompanyRepository.
type MockCompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]*domain.Company
}

// NewMockCompanyRepository creates a new mock company repository.
func NewMockCompanyRepository() *MockCompanyRepository {
	return &MockCompanyRepository{
		companies: make(map[string]*domain.Company),
	}
}

// AddCompany adds a company to the mock repository.
func (m *MockCompanyRepository) AddCompany(company *domain.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[company.ID] = company
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (m *MockCompanyRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.companies {
		if c.IsOwnedBy(ownerID) {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		copy := *c
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Ensure the mocks implement the repository interfaces.
var (
	_ repository.RequestRepository  = (*MockRequestRepository)(nil)
	_ repository.ContractRepository = (*MockContractRepository)(nil)
	_ repository.TripRepository     = (*MockTripRepository)(nil)
	_ repository.DriverRepository   = (*MockDriverRepository)(nil)
	_ repository.VehicleRepository  = (*MockVehicleRepository)(nil)
	_ repository.CompanyRepository  = (*MockCompanyRepository)(nil)
	_ repository.TxManager          = (*MockTxManager)(nil)
	_ TxParticipant                 = (*MockRequestRepository)(nil)
	_ TxParticipant                 = (*MockContractRepository)(nil)
)

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// TxParticipant is a mock repository whose state MockTxManager can restore.
type TxParticipant interface {
	Snapshot() (restore func())
}

type mockTxKey struct{}

// MockTxManager runs units of work one at a time. When fn fails, every
// participant is restored to its state from before fn ran. Nested calls join
// the outer unit.
type MockTxManager struct {
	mu           sync.Mutex
	participants []TxParticipant

	CallCount     int32
	RollbackCount int32
}

// NewMockTxManager creates a tx manager that rolls back the given repositories.
func NewMockTxManager(participants ...TxParticipant) *MockTxManager {
	return &MockTxManager{participants: participants}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	atomic.AddInt32(&m.CallCount, 1)
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.participants))
	for _, p := range m.participants {
		restores = append(restores, p.Snapshot())
	}

	if err := fn(context.WithValue(ctx, mockTxKey{}, true)); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string
	seq   int

	AcquireError error
}

// Ensure MockLockStore implements the interface.
var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func (m *MockLockStore) AcquireRequestLock(ctx context.Context, requestID string, ttl time.Duration) (string, bool, error) {
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[requestID]; held {
		return "", false, nil
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.locks[requestID] = token
	return token, true, nil
}

func (m *MockLockStore) ReleaseRequestLock(ctx context.Context, requestID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[requestID] == token {
		delete(m.locks, requestID)
	}
	return nil
}

// Hold takes the lock for requestID as another broker would.
func (m *MockLockStore) Hold(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[requestID] = "held-elsewhere"
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event

	PublishError error
}

// Ensure MockPublisher implements the interface.
var _ events.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Types returns the types of the published events in order.
func (m *MockPublisher) Types() []events.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]events.Type, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}
