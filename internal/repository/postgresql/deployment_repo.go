package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"garage_config/internal/domain"
	"garage_config/internal/repository"
)

type pgDeploymentRepository struct {
	db *sql.DB
}

func NewPgDeploymentRepository(db *sql.DB) repository.DeploymentRepository {
	return &pgDeploymentRepository{db: db}
}

func (r *pgDeploymentRepository) Create(ctx context.Context, d *domain.Deployment) (*domain.Deployment, error) {
	query := `INSERT INTO deployments (id, garage_id, garage_name, version, topic, status, error)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING deployed_at`
	err := r.db.QueryRowContext(ctx, query, d.ID, d.GarageID, d.GarageName, d.Version, d.Topic, string(d.Status), d.Error).
		Scan(&d.DeployedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: deployment '%s'", repository.ErrDuplicateEntry, d.ID)
		}
		return nil, fmt.Errorf("DeploymentRepository.Create: %w", err)
	}
	d.DeployedAt = d.DeployedAt.In(time.UTC)
	return d, nil
}

func (r *pgDeploymentRepository) UpdateStatus(ctx context.Context, id string, status domain.DeploymentStatus, errMsg string) error {
	query := `UPDATE deployments SET status = $1, error = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, string(status), sql.NullString{String: errMsg, Valid: errMsg != ""}, id)
	if err != nil {
		return fmt.Errorf("DeploymentRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeploymentRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgDeploymentRepository) FindAll(ctx context.Context, limit int) ([]domain.Deployment, error) {
	query := `SELECT id, garage_id, garage_name, version, topic, status, error, deployed_at
	          FROM deployments ORDER BY deployed_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("DeploymentRepository.FindAll: %w", err)
	}
	defer rows.Close()

	deployments := []domain.Deployment{}
	for rows.Next() {
		var d domain.Deployment
		if err := rows.Scan(&d.ID, &d.GarageID, &d.GarageName, &d.Version, &d.Topic, &d.Status, &d.Error, &d.DeployedAt); err != nil {
			return nil, fmt.Errorf("DeploymentRepository.FindAll (scanning row): %w", err)
		}
		d.DeployedAt = d.DeployedAt.In(time.UTC)
		deployments = append(deployments, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("DeploymentRepository.FindAll (rows error): %w", err)
	}
	return deployments, nil
}
