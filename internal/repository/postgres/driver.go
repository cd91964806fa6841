package postgres

import (
	"context"
	"database/sql"
	"errors"

	"commute/internal/domain"
	"commute/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT id, company_id, COALESCE(user_id, ''), license_number, availability_status FROM drivers WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByUserID retrieves the driver record of an identity subject.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	query := `SELECT id, company_id, COALESCE(user_id, ''), license_number, availability_status FROM drivers WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

// ListByCompany retrieves a company's drivers, optionally only available ones.
func (r *DriverRepository) ListByCompany(ctx context.Context, companyID string, availableOnly bool) ([]*domain.Driver, error) {
	query := `
		SELECT id, company_id, COALESCE(user_id, ''), license_number, availability_status
		FROM drivers
		WHERE company_id = $1 AND ($2 = false OR availability_status = $3)
		ORDER BY license_number
	`

	rows, err := querier(ctx, r.q).QueryContext(ctx, query, companyID, availableOnly, domain.DriverAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID,
			&driver.CompanyID,
			&driver.UserID,
			&driver.LicenseNumber,
			&driver.Availability,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}

	return drivers, rows.Err()
}

// UpdateAvailability sets whether a driver takes new assignments.
func (r *DriverRepository) UpdateAvailability(ctx context.Context, id string, availability domain.DriverAvailability) error {
	query := `UPDATE drivers SET availability_status = $1 WHERE id = $2`

	result, err := querier(ctx, r.q).ExecContext(ctx, query, availability, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg string) (*domain.Driver, error) {
	var driver domain.Driver
	err := querier(ctx, r.q).QueryRowContext(ctx, query, arg).Scan(
		&driver.ID,
		&driver.CompanyID,
		&driver.UserID,
		&driver.LicenseNumber,
		&driver.Availability,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
