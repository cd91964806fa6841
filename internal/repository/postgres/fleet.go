package postgres

import (
	"context"
	"database/sql"
	"errors"

	"commute/internal/domain"
	"commute/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, company_id, plate_number, model, capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := querier(ctx, r.q).ExecContext(ctx, query,
		v.ID, v.CompanyID, v.PlateNumber, nullString(v.Model), v.Capacity, v.Status,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT id, company_id, plate_number, COALESCE(model, ''), capacity, status FROM vehicles WHERE id = $1`

	var v domain.Vehicle
	err := querier(ctx, r.q).QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.CompanyID, &v.PlateNumber, &v.Model, &v.Capacity, &v.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &v, nil
}

// ListByCompany retrieves a company's vehicles.
func (r *VehicleRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, company_id, plate_number, COALESCE(model, ''), capacity, status
		FROM vehicles WHERE company_id = $1 ORDER BY plate_number
	`

	rows, err := querier(ctx, r.q).QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.PlateNumber, &v.Model, &v.Capacity, &v.Status); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &v)
	}

	return vehicles, rows.Err()
}

// Update overwrites the editable fields of a vehicle.
func (r *VehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	query := `UPDATE vehicles SET plate_number = $1, model = $2, capacity = $3, status = $4 WHERE id = $5`

	result, err := querier(ctx, r.q).ExecContext(ctx, query,
		v.PlateNumber, nullString(v.Model), v.Capacity, v.Status, v.ID,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
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

// CompanyRepository is a PostgreSQL implementation of repository.CompanyRepository.
type CompanyRepository struct {
	q Querier
}

// NewCompanyRepository creates a new PostgreSQL company repository.
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{q: db}
}

const companySelect = `
		SELECT c.id, c.name, COALESCE(c.owner_id, ''), COALESCE(c.contact_phone, ''), c.status,
			(SELECT COUNT(*) FROM vehicles v WHERE v.company_id = c.id)
		FROM transport_companies c`

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	return r.getOne(ctx, companySelect+` WHERE c.id = $1`, id)
}

// GetByOwnerID retrieves the company run by an identity subject.
func (r *CompanyRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Company, error) {
	return r.getOne(ctx, companySelect+` WHERE c.owner_id = $1 ORDER BY c.id LIMIT 1`, ownerID)
}

func (r *CompanyRepository) getOne(ctx context.Context, query, arg string) (*domain.Company, error) {
	var c domain.Company
	err := querier(ctx, r.q).QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.OwnerID, &c.ContactPhone, &c.Status, &c.VehiclesCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &c, nil
}

// List retrieves all companies ordered by name.
func (r *CompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	query := companySelect + ` ORDER BY c.name`

	rows, err := querier(ctx, r.q).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.ContactPhone, &c.Status, &c.VehiclesCount); err != nil {
			return nil, err
		}
		companies = append(companies, &c)
	}

	return companies, rows.Err()
}

// Ensure interfaces are satisfied.
var (
	_ repository.VehicleRepository = (*VehicleRepository)(nil)
	_ repository.CompanyRepository = (*CompanyRepository)(nil)
)
