package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"garage_config/internal/domain"
	"garage_config/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type pgGarageRepository struct {
	db *sql.DB
}

func NewPgGarageRepository(db *sql.DB) repository.GarageRepository {
	return &pgGarageRepository{db: db}
}

// The whole document lives in doc; id, name and status are copied out into
// columns for listing and filtering.
func (r *pgGarageRepository) Create(ctx context.Context, garage *domain.Garage) (*domain.Garage, error) {
	doc, err := json.Marshal(garage)
	if err != nil {
		return nil, fmt.Errorf("GarageRepository.Create (encoding document): %w", err)
	}
	query := `INSERT INTO garages (id, name, status, doc) VALUES ($1, $2, $3, $4::jsonb) RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, garage.ID, garage.Name, string(garage.Status), string(doc)).
		Scan(&garage.CreatedAt, &garage.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: garage '%s'", repository.ErrDuplicateEntry, garage.ID)
		}
		return nil, fmt.Errorf("GarageRepository.Create: %w", err)
	}
	garage.CreatedAt = garage.CreatedAt.In(time.UTC)
	garage.UpdatedAt = garage.UpdatedAt.In(time.UTC)
	return garage, nil
}

func (r *pgGarageRepository) FindByID(ctx context.Context, id string) (*domain.Garage, error) {
	query := `SELECT id, doc, created_at, updated_at FROM garages WHERE id = $1`
	garage, err := scanGarage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("GarageRepository.FindByID: %w", err)
	}
	return garage, nil
}

func (r *pgGarageRepository) FindAll(ctx context.Context, filter domain.GarageFilter) ([]domain.Garage, error) {
	query := `SELECT id, doc, created_at, updated_at FROM garages`
	var args []any
	if filter.Status.Valid {
		query += ` WHERE status = $1`
		args = append(args, filter.Status.String)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GarageRepository.FindAll: %w", err)
	}
	defer rows.Close()

	garages := []domain.Garage{}
	for rows.Next() {
		g, err := scanGarage(rows)
		if err != nil {
			return nil, fmt.Errorf("GarageRepository.FindAll (scanning row): %w", err)
		}
		garages = append(garages, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("GarageRepository.FindAll (rows error): %w", err)
	}
	return garages, nil
}

func (r *pgGarageRepository) Update(ctx context.Context, garage *domain.Garage) (*domain.Garage, error) {
	doc, err := json.Marshal(garage)
	if err != nil {
		return nil, fmt.Errorf("GarageRepository.Update (encoding document): %w", err)
	}
	query := `UPDATE garages SET name = $1, status = $2, doc = $3::jsonb, updated_at = CURRENT_TIMESTAMP WHERE id = $4 RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, garage.Name, string(garage.Status), string(doc), garage.ID).
		Scan(&garage.CreatedAt, &garage.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("GarageRepository.Update: %w", err)
	}
	garage.CreatedAt = garage.CreatedAt.In(time.UTC)
	garage.UpdatedAt = garage.UpdatedAt.In(time.UTC)
	return garage, nil
}

func (r *pgGarageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM garages WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("GarageRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("GarageRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGarage(row rowScanner) (*domain.Garage, error) {
	var (
		id        string
		doc       []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &doc, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	garage := &domain.Garage{}
	if err := json.Unmarshal(doc, garage); err != nil {
		return nil, fmt.Errorf("decoding garage document %s: %w", id, err)
	}
	garage.ID = id
	garage.CreatedAt = createdAt.In(time.UTC)
	garage.UpdatedAt = updatedAt.In(time.UTC)
	return garage, nil
}

// isUniqueViolation understands both drivers NewDB can open.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
