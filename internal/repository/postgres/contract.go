package postgres

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"commute/internal/domain"
	"commute/internal/repository"
)

var contractColumns = []string{
	"c.id", "c.request_id", "c.company_id", "c.driver_id", "c.vehicle_id",
	"c.price", "c.admin_notes", "c.status", "c.created_at",
}

// ContractRepository is a PostgreSQL implementation of repository.ContractRepository.
type ContractRepository struct {
	q Querier
}

// NewContractRepository creates a new PostgreSQL contract repository.
func NewContractRepository(db *sql.DB) *ContractRepository {
	return &ContractRepository{q: db}
}

// Create persists a new contract. The partial unique index on
// contracts(request_id) rejects a second non-cancelled contract.
func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	query := `
		INSERT INTO contracts (id, request_id, company_id, driver_id, vehicle_id, price, admin_notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := querier(ctx, r.q).ExecContext(ctx, query,
		contract.ID,
		contract.RequestID,
		contract.CompanyID,
		contract.DriverID,
		contract.VehicleID,
		contract.Price,
		nullString(contract.AdminNotes),
		contract.Status,
		contract.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByID retrieves a contract by ID.
func (r *ContractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	return r.getOne(ctx, sq.Eq{"c.id": id})
}

// GetOpenByRequestID retrieves the non-cancelled contract for a request.
// Returns nil if none exists.
func (r *ContractRepository) GetOpenByRequestID(ctx context.Context, requestID string) (*domain.Contract, error) {
	contract, err := r.getOne(ctx, sq.And{
		sq.Eq{"c.request_id": requestID},
		sq.NotEq{"c.status": domain.ContractStatusCancelled},
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}

	return contract, err
}

// ListByStatus retrieves contracts in the given status, newest first.
func (r *ContractRepository) ListByStatus(ctx context.Context, status domain.ContractStatus) ([]*domain.Contract, error) {
	return r.list(ctx, psql.Select(contractColumns...).
		From("contracts c").
		Where(sq.Eq{"c.status": status}).
		OrderBy("c.created_at DESC"))
}

// ListByBusiness retrieves contracts whose request belongs to the business.
func (r *ContractRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.Contract, error) {
	return r.list(ctx, psql.Select(contractColumns...).
		From("contracts c").
		Join("requests r ON r.id = c.request_id").
		Where(sq.Eq{"r.business_id": businessID}).
		OrderBy("c.created_at DESC"))
}

// ListByCompany retrieves a company's contracts in the given status, newest first.
func (r *ContractRepository) ListByCompany(ctx context.Context, companyID string, status domain.ContractStatus) ([]*domain.Contract, error) {
	return r.list(ctx, psql.Select(contractColumns...).
		From("contracts c").
		Where(sq.Eq{"c.company_id": companyID, "c.status": status}).
		OrderBy("c.created_at DESC"))
}

// DeleteCancelledByRequestID removes the cancelled contracts of a request.
func (r *ContractRepository) DeleteCancelledByRequestID(ctx context.Context, requestID string) error {
	query := `DELETE FROM contracts WHERE request_id = $1 AND status = $2`

	_, err := querier(ctx, r.q).ExecContext(ctx, query, requestID, domain.ContractStatusCancelled)
	if isForeignKeyViolation(err) {
		return repository.ErrReferenced
	}

	return err
}

// UpdateStatus moves a contract from one status to another.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ContractStatus) error {
	query := `UPDATE contracts SET status = $1 WHERE id = $2 AND status = $3`

	result, err := querier(ctx, r.q).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}

	return affectedOrConflict(result)
}

func (r *ContractRepository) getOne(ctx context.Context, pred sq.Sqlizer) (*domain.Contract, error) {
	query, args, err := psql.Select(contractColumns...).From("contracts c").Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	contract, err := scanContract(querier(ctx, r.q).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return contract, nil
}

func (r *ContractRepository) list(ctx context.Context, b sq.SelectBuilder) ([]*domain.Contract, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := querier(ctx, r.q).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []*domain.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}

	return contracts, rows.Err()
}

func scanContract(row rowScanner) (*domain.Contract, error) {
	var contract domain.Contract
	var notes sql.NullString

	if err := row.Scan(
		&contract.ID,
		&contract.RequestID,
		&contract.CompanyID,
		&contract.DriverID,
		&contract.VehicleID,
		&contract.Price,
		&notes,
		&contract.Status,
		&contract.CreatedAt,
	); err != nil {
		return nil, err
	}
	contract.AdminNotes = notes.String

	return &contract, nil
}

// Ensure ContractRepository implements repository.ContractRepository.
var _ repository.ContractRepository = (*ContractRepository)(nil)
