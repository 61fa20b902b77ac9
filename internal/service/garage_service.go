package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"garage_config/internal/domain"
	"garage_config/internal/editor"
	"garage_config/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMalformedMessage = errors.New("malformed occupancy message")

// EventPublisher fans garage change events out to real-time subscribers.
// Publishing is fire-and-forget; implementations log and drop on failure.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.GarageEvent)
}

type GarageService struct {
	repo   repository.GarageRepository
	events EventPublisher
	log    *zap.Logger
	newID  func() string
	locks  garageLocks
}

func NewGarageService(repo repository.GarageRepository, events EventPublisher, log *zap.Logger) *GarageService {
	return &GarageService{
		repo:   repo,
		events: events,
		log:    log,
		newID:  uuid.NewString,
	}
}

func (s *GarageService) List(ctx context.Context, filter domain.GarageFilter) ([]domain.Garage, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *GarageService) Get(ctx context.Context, id string) (*domain.Garage, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *GarageService) Create(ctx context.Context, dto domain.GarageDTO) (*domain.Garage, error) {
	g := &domain.Garage{ID: s.newID()}
	dto.Apply(g)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, g)
	if err != nil {
		return nil, err
	}
	s.log.Info("garage created", zap.String("garage_id", created.ID), zap.String("name", created.Name))
	s.publish(ctx, domain.EventGarageCreated, created.ID, created)
	return created, nil
}

// Update merges the fields present in dto into the stored document. A level
// count without levelsData grows or shrinks the stored levels the way
// ResizeLevels does. Saves from clients are last-write-wins.
func (s *GarageService) Update(ctx context.Context, id string, dto domain.GarageUpdateDTO) (*domain.Garage, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto.Merge(g)
	if dto.Levels.Valid && dto.LevelsData == nil {
		if err := editor.New(g).ResizeLevels(int(dto.Levels.Int64)); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, g)
}

func (s *GarageService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("garage deleted", zap.String("garage_id", id))
	s.publish(ctx, domain.EventGarageDeleted, id, id)
	return nil
}

func (s *GarageService) AddElement(ctx context.Context, id string, level int, elementType string, position domain.Vector3) (*domain.PlacedElement, error) {
	var placed *domain.PlacedElement
	_, err := s.edit(ctx, id, func(e *editor.Editor) (bool, error) {
		var err error
		placed, err = e.Add(level, elementType, position)
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// UpdateElement patches one element. The returned flag is false, and
// nothing is saved, when no element has that id. An empty patch is never
// saved.
func (s *GarageService) UpdateElement(ctx context.Context, id string, level int, elementType, elementID string, patch domain.ElementPatch) (*domain.Garage, bool, error) {
	var found bool
	g, err := s.edit(ctx, id, func(e *editor.Editor) (bool, error) {
		var err error
		found, err = e.Update(level, elementType, elementID, patch)
		return found && !patch.IsEmpty(), err
	})
	return g, found, err
}

func (s *GarageService) DeleteElement(ctx context.Context, id string, level int, elementType, elementID string) (*domain.Garage, bool, error) {
	var found bool
	g, err := s.edit(ctx, id, func(e *editor.Editor) (bool, error) {
		var err error
		found, err = e.Delete(level, elementType, elementID)
		return found, err
	})
	return g, found, err
}

func (s *GarageService) MoveElement(ctx context.Context, id string, level int, elementID string, position domain.Vector3) (*domain.Garage, bool, error) {
	var found bool
	g, err := s.edit(ctx, id, func(e *editor.Editor) (bool, error) {
		var err error
		found, err = e.Move(level, elementID, position)
		return found, err
	})
	return g, found, err
}

func (s *GarageService) ResizeLevels(ctx context.Context, id string, levels int) (*domain.Garage, error) {
	return s.edit(ctx, id, func(e *editor.Editor) (bool, error) {
		return true, e.ResizeLevels(levels)
	})
}

// UpdateOccupancy stores a device-reported occupancy percentage, clamped to
// 0..100.
func (s *GarageService) UpdateOccupancy(ctx context.Context, id string, percent float64) (*domain.Garage, error) {
	if math.IsNaN(percent) {
		return nil, fmt.Errorf("%w: occupancy is not a number", domain.ErrInvalidGarage)
	}
	unlock := s.locks.lock(id)
	defer unlock()

	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Occupancy = math.Max(0, math.Min(100, percent))
	return s.save(ctx, g)
}

// HandleOccupancyMessage applies one occupancy report received from the
// device queue. Bodies that can never succeed wrap ErrMalformedMessage.
func (s *GarageService) HandleOccupancyMessage(ctx context.Context, body string) error {
	var report domain.OccupancyReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if report.GarageID == "" {
		return fmt.Errorf("%w: garageId is missing", ErrMalformedMessage)
	}
	_, err := s.UpdateOccupancy(ctx, report.GarageID, report.Occupancy)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: unknown garage '%s'", ErrMalformedMessage, report.GarageID)
	case errors.Is(err, domain.ErrInvalidGarage):
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return err
}

// edit loads the garage, runs op through an editor and saves the result
// when op reports a change. The whole cycle holds the garage's lock.
func (s *GarageService) edit(ctx context.Context, id string, op func(*editor.Editor) (bool, error)) (*domain.Garage, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := op(editor.New(g))
	if err != nil {
		return nil, err
	}
	if !changed {
		return g, nil
	}
	g.Normalize()
	return s.save(ctx, g)
}

func (s *GarageService) save(ctx context.Context, g *domain.Garage) (*domain.Garage, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, g)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventGarageUpdated, updated.ID, updated)
	return updated, nil
}

func (s *GarageService) publish(ctx context.Context, eventType domain.GarageEventType, garageID string, data any) {
	if s.events == nil {
		return
	}
	event, err := domain.NewGarageEvent(eventType, garageID, data)
	if err != nil {
		s.log.Error("failed to encode garage event", zap.String("event", string(eventType)), zap.Error(err))
		return
	}
	s.events.Publish(ctx, event)
}
