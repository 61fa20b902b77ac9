package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"garage_config/internal/domain"
	"garage_config/internal/repository"

	"gopkg.in/guregu/null.v4"
)

type deploymentRepository struct {
	mu          sync.RWMutex
	deployments []domain.Deployment // oldest first
}

func NewDeploymentRepository() repository.DeploymentRepository {
	return &deploymentRepository{}
}

func (r *deploymentRepository) Create(_ context.Context, d *domain.Deployment) (*domain.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.deployments {
		if existing.ID == d.ID {
			return nil, fmt.Errorf("%w: deployment '%s'", repository.ErrDuplicateEntry, d.ID)
		}
	}
	d.DeployedAt = time.Now().UTC()
	r.deployments = append(r.deployments, *d)
	return d, nil
}

func (r *deploymentRepository) UpdateStatus(_ context.Context, id string, status domain.DeploymentStatus, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.deployments {
		if r.deployments[i].ID == id {
			r.deployments[i].Status = status
			r.deployments[i].Error = null.NewString(errMsg, errMsg != "")
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *deploymentRepository) FindAll(_ context.Context, limit int) ([]domain.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Deployment, 0, len(r.deployments))
	for i := len(r.deployments) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.deployments[i])
	}
	return out, nil
}
