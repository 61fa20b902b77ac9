package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"garage_config/internal/domain"
	"garage_config/internal/repository"
	"garage_config/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.GarageEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.GarageEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []domain.GarageEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.GarageEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Event
	}
	return out
}

func newTestGarageService(t *testing.T) (*GarageService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewGarageService(memory.NewGarageRepository(), pub, zap.NewNop()), pub
}

func TestGarageService_CreateDerivesTotals(t *testing.T) {
	svc, pub := newTestGarageService(t)

	g, err := svc.Create(context.Background(), domain.GarageDTO{Name: "Airport P3", Levels: 4, SpotsPerLevel: 25})
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID)
	assert.Equal(t, 4, g.Levels)
	assert.Equal(t, 100, g.TotalSpaces)
	assert.Equal(t, domain.GarageActive, g.Status)
	assert.Equal(t, "1.0.0", g.Version)
	assert.Equal(t, []domain.GarageEventType{domain.EventGarageCreated}, pub.types())
}

func TestGarageService_CreateRejectsInvalid(t *testing.T) {
	svc, pub := newTestGarageService(t)

	_, err := svc.Create(context.Background(), domain.GarageDTO{Name: "Bad", Levels: 1, Status: "closed"})
	assert.ErrorIs(t, err, domain.ErrInvalidGarage)

	_, err = svc.Create(context.Background(), domain.GarageDTO{Name: "Empty", Levels: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidGarage)
	assert.Empty(t, pub.types())
}

func TestGarageService_UpdateKeepsOccupancyAndCreatedAt(t *testing.T) {
	svc, pub := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Mall", Levels: 2})
	require.NoError(t, err)
	_, err = svc.UpdateOccupancy(ctx, g.ID, 37.5)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, g.ID, domain.GarageUpdateDTO{
		Name:   null.StringFrom("Mall East"),
		Levels: null.IntFrom(3),
		Status: null.StringFrom(string(domain.GarageMaintenance)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mall East", updated.Name)
	assert.Equal(t, 37.5, updated.Occupancy)
	assert.Equal(t, 150, updated.TotalSpaces)
	assert.Equal(t, g.CreatedAt, updated.CreatedAt)

	updated, err = svc.Update(ctx, g.ID, domain.GarageUpdateDTO{Occupancy: null.FloatFrom(5)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.Occupancy)
	assert.Equal(t, "Mall East", updated.Name)
	assert.Equal(t, domain.GarageMaintenance, updated.Status)

	_, err = svc.Update(ctx, "missing", domain.GarageUpdateDTO{Name: null.StringFrom("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, []domain.GarageEventType{
		domain.EventGarageCreated, domain.EventGarageUpdated, domain.EventGarageUpdated, domain.EventGarageUpdated,
	}, pub.types())
}

func TestGarageService_UpdateKeepsAbsentFields(t *testing.T) {
	svc, _ := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{
		Name: "Quay", Levels: 2, SpotsPerLevel: 30,
		Status: domain.GarageMaintenance, Version: "2.1.0",
	})
	require.NoError(t, err)
	placed, err := svc.AddElement(ctx, g.ID, 1, "camera", domain.Vector3{4, 0, 4})
	require.NoError(t, err)

	// the config editor saves the export document back, which has no levelsData
	updated, err := svc.Update(ctx, g.ID, domain.GarageUpdateDTO{
		Name:    null.StringFrom("Quay renamed"),
		Levels:  null.IntFrom(2),
		Cameras: []domain.Camera{},
		Sensors: []domain.Sensor{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Quay renamed", updated.Name)
	require.Len(t, updated.LevelsData[1].Cameras, 1)
	assert.Equal(t, placed.Data.(domain.Camera).ID, updated.LevelsData[1].Cameras[0].ID)
	assert.Equal(t, domain.GarageMaintenance, updated.Status)
	assert.Equal(t, "2.1.0", updated.Version)
	assert.Equal(t, 30, updated.SpotsPerLevel)
	assert.Equal(t, 60, updated.TotalSpaces)

	updated, err = svc.Update(ctx, g.ID, domain.GarageUpdateDTO{SpotsPerLevel: null.IntFrom(40)})
	require.NoError(t, err)
	assert.Equal(t, 80, updated.TotalSpaces)
	assert.Len(t, updated.LevelsData[1].Cameras, 1)

	_, err = svc.Update(ctx, g.ID, domain.GarageUpdateDTO{Status: null.StringFrom("closed")})
	assert.ErrorIs(t, err, domain.ErrInvalidGarage)
	_, err = svc.Update(ctx, g.ID, domain.GarageUpdateDTO{Levels: null.IntFrom(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)
}

type slowGarageRepo struct {
	repository.GarageRepository
}

func (r slowGarageRepo) FindByID(ctx context.Context, id string) (*domain.Garage, error) {
	time.Sleep(time.Millisecond)
	return r.GarageRepository.FindByID(ctx, id)
}

func TestGarageService_ConcurrentElementEdits(t *testing.T) {
	svc := NewGarageService(slowGarageRepo{memory.NewGarageRepository()}, nil, zap.NewNop())
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Busy", Levels: 1})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddElement(ctx, g.ID, 0, "sensor", domain.Vector3{float64(i), 0, 0})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LevelsData[0].Sensors, n)
}

func TestGarageService_EmptyPatchIsNotSaved(t *testing.T) {
	svc, pub := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Idle", Levels: 1})
	require.NoError(t, err)
	placed, err := svc.AddElement(ctx, g.ID, 0, "camera", domain.Vector3{})
	require.NoError(t, err)
	before := len(pub.types())

	stored, found, err := svc.UpdateElement(ctx, g.ID, 0, "camera", placed.Data.(domain.Camera).ID, domain.ElementPatch{})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, stored.LevelsData[0].Cameras, 1)
	assert.Len(t, pub.types(), before)
}

func TestGarageService_DeletePublishesID(t *testing.T) {
	svc, pub := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Temp", Levels: 1})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, g.ID))
	assert.ErrorIs(t, svc.Delete(ctx, g.ID), repository.ErrNotFound)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, domain.EventGarageDeleted, last.Event)
	var id string
	require.NoError(t, json.Unmarshal(last.Data, &id))
	assert.Equal(t, g.ID, id)
	assert.Empty(t, last.Room())
}

func TestGarageService_ElementOperations(t *testing.T) {
	svc, pub := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Station", Levels: 2})
	require.NoError(t, err)

	placed, err := svc.AddElement(ctx, g.ID, 1, "camera", domain.Vector3{1, 2, 3})
	require.NoError(t, err)
	cam := placed.Data.(domain.Camera)

	ip := "192.168.1.20"
	stored, found, err := svc.UpdateElement(ctx, g.ID, 1, "camera", cam.ID, domain.ElementPatch{IP: &ip})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ip, stored.LevelsData[1].Cameras[0].IP)

	stored, found, err = svc.MoveElement(ctx, g.ID, 1, cam.ID, domain.Vector3{9, 0, 9})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.Vector3{9, 0, 9}, stored.LevelsData[1].Cameras[0].Position)

	_, found, err = svc.DeleteElement(ctx, g.ID, 1, "camera", "nope")
	require.NoError(t, err)
	assert.False(t, found)

	stored, found, err = svc.DeleteElement(ctx, g.ID, 1, "camera", cam.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, stored.LevelsData[1].Cameras)

	_, err = svc.AddElement(ctx, g.ID, 5, "sensor", domain.Vector3{})
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)
	_, err = svc.AddElement(ctx, g.ID, 0, "elevator", domain.Vector3{})
	assert.ErrorIs(t, err, domain.ErrInvalidElementType)

	// create, add, update, move, delete; the no-op delete saves nothing
	assert.Len(t, pub.types(), 5)
	assert.Equal(t, domain.GarageRoom(g.ID), pub.events[4].Room())
}

func TestGarageService_InvalidPatchIsNotSaved(t *testing.T) {
	svc, _ := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Depot", Levels: 1})
	require.NoError(t, err)
	placed, err := svc.AddElement(ctx, g.ID, 0, "sensor", domain.Vector3{})
	require.NoError(t, err)

	bogus := "diesel"
	_, _, err = svc.UpdateElement(ctx, g.ID, 0, "sensor", placed.Data.(domain.Sensor).ID, domain.ElementPatch{Type: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidGarage)

	fresh, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SensorNormal, fresh.LevelsData[0].Sensors[0].Type)
}

func TestGarageService_ResizeLevels(t *testing.T) {
	svc, _ := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Tower", Levels: 2, SpotsPerLevel: 10})
	require.NoError(t, err)

	resized, err := svc.ResizeLevels(ctx, g.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, resized.Levels)
	assert.Equal(t, 50, resized.TotalSpaces)
	assert.Equal(t, "Level 5", resized.LevelsData[4].Name)

	_, err = svc.ResizeLevels(ctx, g.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)
}

func TestGarageService_UpdateOccupancyClamps(t *testing.T) {
	svc, _ := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Lot", Levels: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateOccupancy(ctx, g.ID, 140)
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.Occupancy)

	updated, err = svc.UpdateOccupancy(ctx, g.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Occupancy)
}

func TestGarageService_HandleOccupancyMessage(t *testing.T) {
	svc, _ := newTestGarageService(t)
	ctx := context.Background()

	g, err := svc.Create(ctx, domain.GarageDTO{Name: "Harbour", Levels: 1})
	require.NoError(t, err)

	require.NoError(t, svc.HandleOccupancyMessage(ctx, `{"garageId":"`+g.ID+`","occupancy":42.5}`))
	stored, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.5, stored.Occupancy)

	assert.ErrorIs(t, svc.HandleOccupancyMessage(ctx, `not json`), ErrMalformedMessage)
	assert.ErrorIs(t, svc.HandleOccupancyMessage(ctx, `{"occupancy":10}`), ErrMalformedMessage)
	assert.ErrorIs(t, svc.HandleOccupancyMessage(ctx, `{"garageId":"ghost","occupancy":10}`), ErrMalformedMessage)
}
