package postgres

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"commute/internal/domain"
	"commute/internal/repository"
)

var requestColumns = []string{
	"id", "business_id", "pickup_location", "destination", "employees_count", "frequency",
	"start_date", "end_date", "special_notes", "status", "created_at",
}

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepository creates a new PostgreSQL request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{q: db}
}

// Create persists a new request.
func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO requests (id, business_id, pickup_location, destination, employees_count, frequency, start_date, end_date, special_notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var endDate sql.NullTime
	if req.EndDate != nil {
		endDate = sql.NullTime{Time: *req.EndDate, Valid: true}
	}

	_, err := querier(ctx, r.q).ExecContext(ctx, query,
		req.ID,
		req.BusinessID,
		req.PickupLocation,
		req.Destination,
		req.EmployeesCount,
		req.Frequency,
		req.StartDate,
		endDate,
		nullString(req.SpecialNotes),
		req.Status,
		req.CreatedAt,
	)

	return err
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query, args, err := psql.Select(requestColumns...).From("requests").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	req, err := scanRequest(querier(ctx, r.q).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return req, nil
}

// List retrieves requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.Request, error) {
	b := psql.Select(requestColumns...).From("requests").OrderBy("created_at DESC")
	if filter.BusinessID != "" {
		b = b.Where(sq.Eq{"business_id": filter.BusinessID})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := querier(ctx, r.q).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// Update applies changes to a request only while it is in the expected status.
func (r *RequestRepository) Update(ctx context.Context, id string, expected domain.RequestStatus, changes repository.RequestUpdate) error {
	if changes.Empty() {
		return nil
	}

	b := psql.Update("requests").Where(sq.Eq{"id": id, "status": expected})
	if changes.PickupLocation != nil {
		b = b.Set("pickup_location", *changes.PickupLocation)
	}
	if changes.Destination != nil {
		b = b.Set("destination", *changes.Destination)
	}
	if changes.EmployeesCount != nil {
		b = b.Set("employees_count", *changes.EmployeesCount)
	}
	if changes.Frequency != nil {
		b = b.Set("frequency", *changes.Frequency)
	}
	if changes.StartDate != nil {
		b = b.Set("start_date", *changes.StartDate)
	}
	if changes.EndDate != nil {
		b = b.Set("end_date", *changes.EndDate)
	} else if changes.ClearEndDate {
		b = b.Set("end_date", nil)
	}
	if changes.SpecialNotes != nil {
		b = b.Set("special_notes", nullString(*changes.SpecialNotes))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return err
	}

	result, err := querier(ctx, r.q).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	return affectedOrConflict(result)
}

// UpdateStatus moves a request from one status to another.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	query := `UPDATE requests SET status = $1 WHERE id = $2 AND status = $3`

	result, err := querier(ctx, r.q).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}

	return affectedOrConflict(result)
}

// Delete removes a request only while it is in the expected status.
func (r *RequestRepository) Delete(ctx context.Context, id string, expected domain.RequestStatus) error {
	query := `DELETE FROM requests WHERE id = $1 AND status = $2`

	result, err := querier(ctx, r.q).ExecContext(ctx, query, id, expected)
	if isForeignKeyViolation(err) {
		return repository.ErrReferenced
	}
	if err != nil {
		return err
	}

	return affectedOrConflict(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var req domain.Request
	var endDate sql.NullTime
	var notes sql.NullString

	if err := row.Scan(
		&req.ID,
		&req.BusinessID,
		&req.PickupLocation,
		&req.Destination,
		&req.EmployeesCount,
		&req.Frequency,
		&req.StartDate,
		&endDate,
		&notes,
		&req.Status,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}

	if endDate.Valid {
		req.EndDate = &endDate.Time
	}
	req.SpecialNotes = notes.String

	return &req, nil
}

// Ensure RequestRepository implements repository.RequestRepository.
var _ repository.RequestRepository = (*RequestRepository)(nil)
