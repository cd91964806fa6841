package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"commute/internal/domain"
	"commute/internal/events"
	"commute/internal/service"
)

// ──────────────────────────────────────────────
// 9. TRIP START AND END
// ──────────────────────────────────────────────

func TestTrip_StartByAssignedDriver(t *testing.T) {
	t.Parallel()

	b := newBrokerage()
	b.addTrip("trip-1", "contract-1", domain.TripStatusPending)

	before := time.Now()
	trip, err := b.tripService.StartTrip(context.Background(), driverA, service.TripPositionInput{
		TripID: "trip-1",
		Lat:    ptr(24.7136),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusActive {
		t.Errorf("expected active, got %s", trip.Status)
	}
	if trip.ActualStart.Before(before) {
		t.Errorf("actual start %v should be at or after %v", trip.ActualStart, before)
	}
	if trip.Pickup == nil || trip.Pickup.Lat != 24.7136 || trip.Pickup.Lng != 0 {
		t.Errorf("expected pickup (24.7136, 0), got %+v", trip.Pickup)
	}

	stored := b.trips.GetTrip("trip-1")
	if stored.Status != domain.TripStatusActive || stored.ActualStart.IsZero() {
		t.Errorf("stored trip not updated: %+v", stored)
	}
}

func TestTrip_StartWithoutPositionDefaultsToZero(t *testing.T) {
	t.Parallel()

	b := newBrokerage()
	b.addTrip("trip-1", "contract-1", domain.TripStatusPending)

	trip, err := b.tripService.StartTrip(context.Background(), driverA, service.TripPositionInput{TripID: "trip-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Pickup == nil || *trip.Pickup != (domain.Coordinates{}) {
		t.Errorf("expected zero pickup, got %+v", trip.Pickup)
	}
}

func TestTrip_EndActive(t *testing.T) {
	t.Parallel()

	b := newBrokerage()
	b.addTrip("trip-1", "contract-1", domain.TripStatusPending)

	if _, err := b.tripService.StartTrip(context.Background(), driverA, service.TripPositionInput{TripID: "trip-1"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	trip, err := b.tripService.EndTrip(context.Background(), driverA, service.TripPositionInput{
		TripID: "trip-1",
		Lat:    ptr(24.76),
		Lng:    ptr(46.64),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected completed, got %s", trip.Status)
	}
	if trip.ActualEnd.Before(trip.ActualStart) {
		t.Error("actual end must not precede actual start")
	}
	if trip.Destination == nil || trip.Destination.Lat != 24.76 || trip.Destination.Lng != 46.64 {
		t.Errorf("unexpected destination %+v", trip.Destination)
	}
	if trip.Pickup == nil {
		t.Error("pickup recorded at start should be kept")
	}

	types := b.publisher.Types()
	if len(types) != 2 || types[0] != events.TripStarted || types[1] != events.TripCompleted {
		t.Errorf("expected trip.started then trip.completed, got %v", types)
	}
}

func TestTrip_TransitionRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		actor       domain.Actor
		status      domain.TripStatus
		end         bool
		wantErr     error
		wantCurrent string
	}{
		{name: "start by another driver", actor: driverB, status: domain.TripStatusPending, wantErr: service.ErrForbidden},
		{name: "driver checked before state", actor: driverB, status: domain.TripStatusCompleted, wantErr: service.ErrForbidden},
		{name: "start by business", actor: business, status: domain.TripStatusPending, wantErr: service.ErrForbidden},
		{name: "start by driver without profile", actor: domain.Actor{ID: "user-ghost", Role: domain.RoleDriver}, status: domain.TripStatusPending, wantErr: service.ErrForbidden},
		{name: "start active trip", actor: driverA, status: domain.TripStatusActive, wantErr: service.ErrInvalidTransition, wantCurrent: "active"},
		{name: "start completed trip", actor: driverA, status: domain.TripStatusCompleted, wantErr: service.ErrInvalidTransition, wantCurrent: "completed"},
		{name: "end pending trip", actor: driverA, status: domain.TripStatusPending, end: true, wantErr: service.ErrInvalidTransition, wantCurrent: "pending"},
		{name: "end by another driver", actor: driverB, status: domain.TripStatusActive, end: true, wantErr: service.ErrForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newBrokerage()
			b.addTrip("trip-1", "contract-1", tt.status)

			in := service.TripPositionInput{TripID: "trip-1", Lat: ptr(1.0), Lng: ptr(2.0)}
			var err error
			if tt.end {
				_, err = b.tripService.EndTrip(context.Background(), tt.actor, in)
			} else {
				_, err = b.tripService.StartTrip(context.Background(), tt.actor, in)
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantCurrent != "" {
				var transition *service.TransitionError
				if !errors.As(err, &transition) || transition.Current != tt.wantCurrent {
					t.Errorf("expected current status %s, got %v", tt.wantCurrent, err)
				}
			}

			stored := b.trips.GetTrip("trip-1")
			if stored.Status != tt.status || !stored.ActualStart.IsZero() || !stored.ActualEnd.IsZero() || stored.Pickup != nil {
				t.Errorf("rejected transition must leave the trip untouched: %+v", stored)
			}
			if b.trips.TransitionCallCount != 0 {
				t.Error("no write may be attempted")
			}
		})
	}
}

func TestTrip_UnknownTrip(t *testing.T) {
	t.Parallel()

	b := newBrokerage()

	_, err := b.tripService.StartTrip(context.Background(), driverA, service.TripPositionInput{TripID: "trip-404"})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 10. AD HOC TRIPS AND READS
// ──────────────────────────────────────────────

func TestTrip_CreateRequiresActiveContract(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.February, 3, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		actor   domain.Actor
		status  domain.ContractStatus
		at      time.Time
		wantErr error
	}{
		{"active contract", admin, domain.ContractStatusActive, at, nil},
		{"pending contract", admin, domain.ContractStatusPending, at, service.ErrInvalidTransition},
		{"cancelled contract", admin, domain.ContractStatusCancelled, at, service.ErrInvalidTransition},
		{"business caller", business, domain.ContractStatusActive, at, service.ErrForbidden},
		{"missing schedule", admin, domain.ContractStatusActive, time.Time{}, service.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newBrokerage()
			b.addRequest("req-1", domain.RequestStatusActive)
			b.addContract("contract-1", "req-1", tt.status)

			trip, err := b.tripService.CreateTrip(context.Background(), tt.actor, service.CreateTripInput{
				ContractID:  "contract-1",
				ScheduledAt: tt.at,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if b.trips.CountTrips() != 0 {
					t.Error("no trip may be created")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if trip.Status != domain.TripStatusPending || trip.DriverID != "driver-1" || !trip.ScheduledAt.Equal(at) {
				t.Errorf("unexpected trip: %+v", trip)
			}
		})
	}
}

func TestTrip_Visibility(t *testing.T) {
	t.Parallel()

	b := newBrokerage()
	b.addRequest("req-1", domain.RequestStatusActive)
	b.addContract("contract-1", "req-1", domain.ContractStatusActive)
	b.addTrip("trip-1", "contract-1", domain.TripStatusPending)
	b.addTrip("trip-2", "contract-1", domain.TripStatusPending)

	if _, err := b.tripService.GetTrip(context.Background(), admin, "trip-1"); err != nil {
		t.Errorf("admin should see trip: %v", err)
	}
	if _, err := b.tripService.GetTrip(context.Background(), driverA, "trip-1"); err != nil {
		t.Errorf("assigned driver should see trip: %v", err)
	}
	if _, err := b.tripService.GetTrip(context.Background(), driverB, "trip-1"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for another driver, got %v", err)
	}

	mine, err := b.tripService.ListMyTrips(context.Background(), driverA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 trips for driverA, got %d", len(mine))
	}

	theirs, err := b.tripService.ListMyTrips(context.Background(), driverB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("expected no trips for driverB, got %d", len(theirs))
	}

	byContract, err := b.tripService.ListContractTrips(context.Background(), business, "contract-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byContract) != 2 {
		t.Errorf("expected 2 contract trips, got %d", len(byContract))
	}
	if _, err := b.tripService.ListContractTrips(context.Background(), rival, "contract-1"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for another business, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 11. FULL LIFECYCLE
// ──────────────────────────────────────────────

func TestLifecycle_RequestToCompletedTrip(t *testing.T) {
	t.Parallel()

	b := newBrokerage()
	ctx := context.Background()

	end := date(2025, time.January, 15)
	req, err := b.requestService.CreateRequest(ctx, business, service.CreateRequestInput{
		PickupLocation: "Olaya Towers",
		Destination:    "KAFD Gate 3",
		EmployeesCount: 4,
		Frequency:      "weekly",
		StartDate:      date(2025, time.January, 1),
		EndDate:        &end,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	contract, err := b.contractService.ProposeContract(ctx, admin, proposal(req.ID))
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	// 50 + 15*4 = 110, weekly 0.8.
	if contract.Price != 88 {
		t.Errorf("expected price 88, got %d", contract.Price)
	}

	result, err := b.contractService.AcceptContract(ctx, business, contract.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	// Jan 1, Jan 8, Jan 15.
	if result.TripsGenerated != 3 {
		t.Fatalf("expected 3 trips, got %d", result.TripsGenerated)
	}

	trips, err := b.tripService.ListMyTrips(ctx, driverA)
	if err != nil || len(trips) != 3 {
		t.Fatalf("expected 3 trips for driver, got %d (%v)", len(trips), err)
	}

	first := trips[0].ID
	if _, err := b.tripService.StartTrip(ctx, driverA, service.TripPositionInput{TripID: first}); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := b.tripService.EndTrip(ctx, driverA, service.TripPositionInput{TripID: first})
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if done.Status != domain.TripStatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	// The request is no longer editable.
	if _, err := b.requestService.CancelRequest(ctx, business, req.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition cancelling an active request, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 12. FLEET READS
// ──────────────────────────────────────────────

func TestFleet_AdminReads(t *testing.T) {
	t.Parallel()

	b := newBrokerage()
	b.drivers.AddDriver(&domain.Driver{ID: "driver-3", CompanyID: "company-1", Availability: domain.DriverUnavailable})
	ctx := context.Background()

	companies, err := b.fleetService.ListCompanies(ctx, admin)
	if err != nil || len(companies) != 2 {
		t.Fatalf("expected 2 companies, got %d (%v)", len(companies), err)
	}

	drivers, err := b.fleetService.ListDrivers(ctx, admin, "company-1", false)
	if err != nil || len(drivers) != 2 {
		t.Errorf("expected 2 drivers, got %d (%v)", len(drivers), err)
	}

	available, err := b.fleetService.ListDrivers(ctx, admin, "company-1", true)
	if err != nil || len(available) != 1 || available[0].ID != "driver-1" {
		t.Errorf("expected only driver-1 available, got %d (%v)", len(available), err)
	}

	vehicles, err := b.fleetService.ListVehicles(ctx, admin, "company-2")
	if err != nil || len(vehicles) != 1 || vehicles[0].ID != "vehicle-2" {
		t.Errorf("expected vehicle-2, got %d (%v)", len(vehicles), err)
	}

	if _, err := b.fleetService.ListVehicles(ctx, admin, "company-404"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown company, got %v", err)
	}
	if _, err := b.fleetService.ListCompanies(ctx, business); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for business, got %v", err)
	}
}
