package repository

import (
	"context"
	"errors"

	"garage_config/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

type GarageRepository interface {
	Create(ctx context.Context, garage *domain.Garage) (*domain.Garage, error)
	FindByID(ctx context.Context, id string) (*domain.Garage, error)
	// FindAll returns garages newest first.
	FindAll(ctx context.Context, filter domain.GarageFilter) ([]domain.Garage, error)
	Update(ctx context.Context, garage *domain.Garage) (*domain.Garage, error)
	Delete(ctx context.Context, id string) error
}

type DeploymentRepository interface {
	Create(ctx context.Context, d *domain.Deployment) (*domain.Deployment, error)
	UpdateStatus(ctx context.Context, id string, status domain.DeploymentStatus, errMsg string) error
	// FindAll returns deployments newest first, at most limit when limit > 0.
	FindAll(ctx context.Context, limit int) ([]domain.Deployment, error)
}
