// Package editor implements the per-level element bookkeeping of the garage
// builder: placing, editing, moving and removing cameras, sensors,
// entrances, exits and ramps on one level of a garage document.
//
// An Editor mutates the garage it wraps in place. It is not safe for
// concurrent use; callers load a document, apply edits and save it.
package editor

import (
	"fmt"

	"garage_config/internal/domain"

	"github.com/google/uuid"
)

// IDFunc returns a new element id for the given prefix.
type IDFunc func(prefix string) string

type Editor struct {
	garage *domain.Garage
	newID  IDFunc
}

func New(g *domain.Garage) *Editor {
	return &Editor{garage: g, newID: defaultID}
}

// WithIDFunc replaces the id generator, mostly for tests.
func (e *Editor) WithIDFunc(f IDFunc) *Editor {
	e.newID = f
	return e
}

func (e *Editor) Garage() *domain.Garage {
	return e.garage
}

func defaultID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func (e *Editor) level(index int) (*domain.Level, error) {
	if index < 0 || index >= len(e.garage.LevelsData) {
		return nil, fmt.Errorf("%w: %d (garage has %d levels)", domain.ErrInvalidLevel, index, len(e.garage.LevelsData))
	}
	return &e.garage.LevelsData[index], nil
}

// Add places a new element at position on the given level. The toolbox names
// "ramp-up" and "ramp-down" add a ramp with that direction.
func (e *Editor) Add(levelIndex int, elementType string, position domain.Vector3) (*domain.PlacedElement, error) {
	typ, rampDir, err := domain.ParseElementType(elementType)
	if err != nil {
		return nil, err
	}
	l, err := e.level(levelIndex)
	if err != nil {
		return nil, err
	}

	placed := &domain.PlacedElement{Type: typ, Level: levelIndex}
	switch typ {
	case domain.ElementCamera:
		cam := domain.Camera{
			ID:        e.newID("cam"),
			Direction: domain.CameraOverview,
			Position:  position,
		}
		l.Cameras = append(l.Cameras, cam)
		placed.Data = cam
	case domain.ElementSensor:
		s := domain.Sensor{ID: e.newID("sensor"), Type: domain.SensorNormal, Position: position}
		l.Sensors = append(l.Sensors, s)
		placed.Data = s
	case domain.ElementEntrance:
		g := domain.Gate{ID: e.newID("entrance"), Position: position}
		l.Entrances = append(l.Entrances, g)
		placed.Data = g
	case domain.ElementExit:
		g := domain.Gate{ID: e.newID("exit"), Position: position}
		l.Exits = append(l.Exits, g)
		placed.Data = g
	case domain.ElementRamp:
		if rampDir == "" {
			rampDir = domain.RampUp
		}
		r := domain.Ramp{ID: e.newID("ramp"), Direction: rampDir, Position: position}
		l.Ramps = append(l.Ramps, r)
		placed.Data = r
	}
	return placed, nil
}

// Update applies patch to the element with the given id. A missing id is a
// no-op and reports false.
func (e *Editor) Update(levelIndex int, elementType string, elementID string, patch domain.ElementPatch) (bool, error) {
	typ, _, err := domain.ParseElementType(elementType)
	if err != nil {
		return false, err
	}
	l, err := e.level(levelIndex)
	if err != nil {
		return false, err
	}

	switch typ {
	case domain.ElementCamera:
		if i := indexOf(l.Cameras, elementID, func(c domain.Camera) string { return c.ID }); i >= 0 {
			patchCamera(&l.Cameras[i], patch)
			return true, nil
		}
	case domain.ElementSensor:
		if i := indexOf(l.Sensors, elementID, func(s domain.Sensor) string { return s.ID }); i >= 0 {
			patchSensor(&l.Sensors[i], patch)
			return true, nil
		}
	case domain.ElementEntrance:
		if i := indexOf(l.Entrances, elementID, gateID); i >= 0 {
			patchGate(&l.Entrances[i], patch)
			return true, nil
		}
	case domain.ElementExit:
		if i := indexOf(l.Exits, elementID, gateID); i >= 0 {
			patchGate(&l.Exits[i], patch)
			return true, nil
		}
	case domain.ElementRamp:
		if i := indexOf(l.Ramps, elementID, func(r domain.Ramp) string { return r.ID }); i >= 0 {
			patchRamp(&l.Ramps[i], patch)
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the first element with the given id from the level's
// collection of that type. A missing id is a no-op and reports false.
func (e *Editor) Delete(levelIndex int, elementType string, elementID string) (bool, error) {
	typ, _, err := domain.ParseElementType(elementType)
	if err != nil {
		return false, err
	}
	l, err := e.level(levelIndex)
	if err != nil {
		return false, err
	}

	var removed bool
	switch typ {
	case domain.ElementCamera:
		l.Cameras, removed = removeByID(l.Cameras, elementID, func(c domain.Camera) string { return c.ID })
	case domain.ElementSensor:
		l.Sensors, removed = removeByID(l.Sensors, elementID, func(s domain.Sensor) string { return s.ID })
	case domain.ElementEntrance:
		l.Entrances, removed = removeByID(l.Entrances, elementID, gateID)
	case domain.ElementExit:
		l.Exits, removed = removeByID(l.Exits, elementID, gateID)
	case domain.ElementRamp:
		l.Ramps, removed = removeByID(l.Ramps, elementID, func(r domain.Ramp) string { return r.ID })
	}
	return removed, nil
}

// Move sets the position of the first element with the given id, searching
// cameras, sensors, entrances, exits and ramps in that order. Ids are only
// unique per collection, so a collision resolves to the earliest collection.
func (e *Editor) Move(levelIndex int, elementID string, position domain.Vector3) (bool, error) {
	l, err := e.level(levelIndex)
	if err != nil {
		return false, err
	}
	for i := range l.Cameras {
		if l.Cameras[i].ID == elementID {
			l.Cameras[i].Position = position
			return true, nil
		}
	}
	for i := range l.Sensors {
		if l.Sensors[i].ID == elementID {
			l.Sensors[i].Position = position
			return true, nil
		}
	}
	for i := range l.Entrances {
		if l.Entrances[i].ID == elementID {
			l.Entrances[i].Position = position
			return true, nil
		}
	}
	for i := range l.Exits {
		if l.Exits[i].ID == elementID {
			l.Exits[i].Position = position
			return true, nil
		}
	}
	for i := range l.Ramps {
		if l.Ramps[i].ID == elementID {
			l.Ramps[i].Position = position
			return true, nil
		}
	}
	return false, nil
}

// ResizeLevels grows or shrinks the garage to n levels. Existing levels keep
// their elements; dropped levels lose theirs.
func (e *Editor) ResizeLevels(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: a garage needs at least one level, got %d", domain.ErrInvalidLevel, n)
	}
	g := e.garage
	switch {
	case n > len(g.LevelsData):
		for i := len(g.LevelsData); i < n; i++ {
			g.LevelsData = append(g.LevelsData, domain.NewLevel(i, g.SpotsPerLevel))
		}
	case n < len(g.LevelsData):
		g.LevelsData = g.LevelsData[:n]
	}
	g.Normalize()
	return nil
}

func gateID(g domain.Gate) string { return g.ID }

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}

func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	i := indexOf(items, id, idOf)
	if i < 0 {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), true
}
