package service

import (
	"context"
	"errors"
	"fmt"

	"garage_config/internal/domain"
	"garage_config/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"
)

var (
	ErrPublisherUnavailable = errors.New("no device config publisher configured")
	ErrDeployFailed         = errors.New("config deployment failed")
)

const deploymentListLimit = 100

// ConfigPublisher delivers a rendered garage config to the garage's devices.
type ConfigPublisher interface {
	PublishConfig(ctx context.Context, topic string, payload []byte) error
}

func ConfigTopic(garageID string) string {
	return fmt.Sprintf("garages/%s/config", garageID)
}

type DeployService struct {
	garages   *GarageService
	repo      repository.DeploymentRepository
	publisher ConfigPublisher
	log       *zap.Logger
}

// NewDeployService wires deployments. publisher may be nil, in which case
// Deploy fails with ErrPublisherUnavailable.
func NewDeployService(garages *GarageService, repo repository.DeploymentRepository, publisher ConfigPublisher, log *zap.Logger) *DeployService {
	return &DeployService{garages: garages, repo: repo, publisher: publisher, log: log}
}

// Deploy publishes the garage's YAML export and records the attempt. A
// publish failure is recorded as a failed deployment and returned alongside
// an error wrapping ErrDeployFailed.
func (s *DeployService) Deploy(ctx context.Context, garageID string) (*domain.Deployment, error) {
	if s.publisher == nil {
		return nil, ErrPublisherUnavailable
	}
	g, err := s.garages.Get(ctx, garageID)
	if err != nil {
		return nil, err
	}
	payload, err := EncodeExport(domain.NewExportDocument(g), FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("DeployService.Deploy (encoding config): %w", err)
	}

	d := &domain.Deployment{
		ID:         uuid.NewString(),
		GarageID:   g.ID,
		GarageName: g.Name,
		Version:    g.Version,
		Topic:      ConfigTopic(g.ID),
		Status:     domain.DeploymentPending,
	}
	if d, err = s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("DeployService.Deploy (recording deployment): %w", err)
	}

	if pubErr := s.publisher.PublishConfig(ctx, d.Topic, payload); pubErr != nil {
		s.log.Warn("config publish failed",
			zap.String("garage_id", g.ID), zap.String("topic", d.Topic), zap.Error(pubErr))
		d.Status = domain.DeploymentFailed
		d.Error = null.StringFrom(pubErr.Error())
		if err := s.repo.UpdateStatus(ctx, d.ID, d.Status, pubErr.Error()); err != nil {
			s.log.Error("failed to record deployment status", zap.String("deployment_id", d.ID), zap.Error(err))
		}
		return d, fmt.Errorf("%w: %v", ErrDeployFailed, pubErr)
	}

	d.Status = domain.DeploymentSuccess
	if err := s.repo.UpdateStatus(ctx, d.ID, d.Status, ""); err != nil {
		return nil, fmt.Errorf("DeployService.Deploy (recording status): %w", err)
	}
	s.log.Info("config deployed",
		zap.String("garage_id", g.ID), zap.String("topic", d.Topic), zap.Int("bytes", len(payload)))
	return d, nil
}

func (s *DeployService) List(ctx context.Context) ([]domain.Deployment, error) {
	return s.repo.FindAll(ctx, deploymentListLimit)
}
