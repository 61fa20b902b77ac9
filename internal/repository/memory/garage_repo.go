// Package memory holds the in-memory fallback used when no database is
// configured or the database cannot be reached at startup. Data lives only
// as long as the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"garage_config/internal/domain"
	"garage_config/internal/repository"
)

type garageRepository struct {
	mu      sync.RWMutex
	garages map[string]*domain.Garage
	now     func() time.Time
}

func NewGarageRepository() repository.GarageRepository {
	return &garageRepository{
		garages: make(map[string]*domain.Garage),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *garageRepository) Create(_ context.Context, garage *domain.Garage) (*domain.Garage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.garages[garage.ID]; exists {
		return nil, fmt.Errorf("%w: garage '%s'", repository.ErrDuplicateEntry, garage.ID)
	}
	now := r.now()
	garage.CreatedAt = now
	garage.UpdatedAt = now
	r.garages[garage.ID] = garage.Clone()
	return garage, nil
}

func (r *garageRepository) FindByID(_ context.Context, id string) (*domain.Garage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.garages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return g.Clone(), nil
}

func (r *garageRepository) FindAll(_ context.Context, filter domain.GarageFilter) ([]domain.Garage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	garages := make([]domain.Garage, 0, len(r.garages))
	for _, g := range r.garages {
		if filter.Matches(g) {
			garages = append(garages, *g.Clone())
		}
	}
	sort.SliceStable(garages, func(i, j int) bool {
		if garages[i].CreatedAt.Equal(garages[j].CreatedAt) {
			return garages[i].ID > garages[j].ID
		}
		return garages[i].CreatedAt.After(garages[j].CreatedAt)
	})
	return garages, nil
}

func (r *garageRepository) Update(_ context.Context, garage *domain.Garage) (*domain.Garage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.garages[garage.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	garage.CreatedAt = existing.CreatedAt
	garage.UpdatedAt = r.now()
	r.garages[garage.ID] = garage.Clone()
	return garage, nil
}

func (r *garageRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.garages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.garages, id)
	return nil
}
