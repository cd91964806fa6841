package postgres

import (
	"context"
	"database/sql"
	"errors"

	"commute/internal/domain"
	"commute/internal/repository"
)

const tripColumns = `id, contract_id, driver_id, scheduled_datetime, actual_start, actual_end,
		pickup_lat, pickup_lng, destination_lat, destination_lng, status, created_at`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	pickupLat, pickupLng := nullCoords(trip.Pickup)
	destLat, destLng := nullCoords(trip.Destination)

	_, err := querier(ctx, r.q).ExecContext(ctx, query,
		trip.ID,
		trip.ContractID,
		trip.DriverID,
		trip.ScheduledAt,
		nullTime(trip.ActualStart),
		nullTime(trip.ActualEnd),
		pickupLat,
		pickupLng,
		destLat,
		destLng,
		trip.Status,
		trip.CreatedAt,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(querier(ctx, r.q).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// ListByDriver retrieves a driver's trips ordered by schedule.
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 ORDER BY scheduled_datetime ASC`
	return r.list(ctx, query, driverID)
}

// ListByContract retrieves a contract's trips ordered by schedule.
func (r *TripRepository) ListByContract(ctx context.Context, contractID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE contract_id = $1 ORDER BY scheduled_datetime ASC`
	return r.list(ctx, query, contractID)
}

// Transition writes the trip's lifecycle fields only if the stored status is from.
func (r *TripRepository) Transition(ctx context.Context, trip *domain.Trip, from domain.TripStatus) error {
	query := `
		UPDATE trips
		SET status = $1, actual_start = $2, actual_end = $3,
			pickup_lat = $4, pickup_lng = $5, destination_lat = $6, destination_lng = $7
		WHERE id = $8 AND status = $9
	`

	pickupLat, pickupLng := nullCoords(trip.Pickup)
	destLat, destLng := nullCoords(trip.Destination)

	result, err := querier(ctx, r.q).ExecContext(ctx, query,
		trip.Status,
		nullTime(trip.ActualStart),
		nullTime(trip.ActualEnd),
		pickupLat,
		pickupLng,
		destLat,
		destLng,
		trip.ID,
		from,
	)
	if err != nil {
		return err
	}

	return affectedOrConflict(result)
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := querier(ctx, r.q).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var actualStart, actualEnd sql.NullTime
	var pickupLat, pickupLng, destLat, destLng sql.NullFloat64

	if err := row.Scan(
		&trip.ID,
		&trip.ContractID,
		&trip.DriverID,
		&trip.ScheduledAt,
		&actualStart,
		&actualEnd,
		&pickupLat,
		&pickupLng,
		&destLat,
		&destLng,
		&trip.Status,
		&trip.CreatedAt,
	); err != nil {
		return nil, err
	}

	if actualStart.Valid {
		trip.ActualStart = actualStart.Time
	}
	if actualEnd.Valid {
		trip.ActualEnd = actualEnd.Time
	}
	if pickupLat.Valid && pickupLng.Valid {
		trip.Pickup = &domain.Coordinates{Lat: pickupLat.Float64, Lng: pickupLng.Float64}
	}
	if destLat.Valid && destLng.Valid {
		trip.Destination = &domain.Coordinates{Lat: destLat.Float64, Lng: destLng.Float64}
	}

	return &trip, nil
}

func nullCoords(c *domain.Coordinates) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
