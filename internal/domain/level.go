package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLevel       = errors.New("level index out of range")
	ErrInvalidElementType = errors.New("unknown element type")
)

// Vector3 is an [x, y, z] triple, serialised as a three element array.
type Vector3 [3]float64

type CameraDirection string

const (
	CameraInbound  CameraDirection = "inbound"
	CameraOutbound CameraDirection = "outbound"
	CameraOverview CameraDirection = "overview"
)

type SensorType string

const (
	SensorNormal   SensorType = "normal"
	SensorEV       SensorType = "EV"
	SensorHandicap SensorType = "handicap"
)

type RampDirection string

const (
	RampUp   RampDirection = "up"
	RampDown RampDirection = "down"
)

type ElementType string

const (
	ElementCamera   ElementType = "camera"
	ElementSensor   ElementType = "sensor"
	ElementEntrance ElementType = "entrance"
	ElementExit     ElementType = "exit"
	ElementRamp     ElementType = "ramp"
)

// ParseElementType accepts the toolbox names, including "ramp-up" and
// "ramp-down", and returns the collection type plus the ramp direction
// implied by the name (empty for everything else).
func ParseElementType(s string) (ElementType, RampDirection, error) {
	switch s {
	case "camera", "sensor", "entrance", "exit", "ramp":
		return ElementType(s), "", nil
	case "ramp-up":
		return ElementRamp, RampUp, nil
	case "ramp-down":
		return ElementRamp, RampDown, nil
	}
	return "", "", fmt.Errorf("%w: '%s'", ErrInvalidElementType, s)
}

type Camera struct {
	ID        string          `json:"id" yaml:"id"`
	IP        string          `json:"ip,omitempty" yaml:"ip,omitempty"`
	Direction CameraDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
	Rotation  Vector3         `json:"rotation" yaml:"rotation"` // only the yaw component is used
	ROI       [][]float64     `json:"roi,omitempty" yaml:"roi,omitempty"`
	Position  Vector3         `json:"position" yaml:"position"`
}

type Sensor struct {
	ID       string     `json:"id" yaml:"id"`
	Type     SensorType `json:"type,omitempty" yaml:"type,omitempty"`
	Position Vector3    `json:"position" yaml:"position"`
}

// Gate is an entrance or an exit.
type Gate struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Position Vector3 `json:"position" yaml:"position"`
}

type Ramp struct {
	ID        string        `json:"id" yaml:"id"`
	Direction RampDirection `json:"direction" yaml:"direction"`
	Position  Vector3       `json:"position" yaml:"position"`
}

type Level struct {
	LevelNumber   int      `json:"levelNumber" yaml:"levelNumber"`
	Name          string   `json:"name" yaml:"name"`
	SpotsPerLevel int      `json:"spotsPerLevel" yaml:"spotsPerLevel"`
	Cameras       []Camera `json:"cameras" yaml:"cameras"`
	Sensors       []Sensor `json:"sensors" yaml:"sensors"`
	Entrances     []Gate   `json:"entrances" yaml:"entrances"`
	Exits         []Gate   `json:"exits" yaml:"exits"`
	Ramps         []Ramp   `json:"ramps" yaml:"ramps"`
}

func NewLevel(index, spots int) Level {
	return Level{
		LevelNumber:   index,
		Name:          fmt.Sprintf("Level %d", index+1),
		SpotsPerLevel: spots,
		Cameras:       []Camera{},
		Sensors:       []Sensor{},
		Entrances:     []Gate{},
		Exits:         []Gate{},
		Ramps:         []Ramp{},
	}
}

// ElementCount is the number of placed elements on the level.
func (l Level) ElementCount() int {
	return len(l.Cameras) + len(l.Sensors) + len(l.Entrances) + len(l.Exits) + len(l.Ramps)
}

// PlacedElement mirrors the {type, data} pair the editor works with.
type PlacedElement struct {
	Type  ElementType `json:"type"`
	Level int         `json:"level"`
	Data  any         `json:"data"`
}

// ElementPatch carries the fields an element update may change. Nil fields
// are left untouched; fields that do not apply to the element are ignored.
type ElementPatch struct {
	ID        *string     `json:"id,omitempty"`
	Name      *string     `json:"name,omitempty"`
	Position  *Vector3    `json:"position,omitempty"`
	IP        *string     `json:"ip,omitempty"`
	Direction *string     `json:"direction,omitempty"`
	Rotation  *Vector3    `json:"rotation,omitempty"`
	ROI       [][]float64 `json:"roi,omitempty"`
	Type      *string     `json:"type,omitempty"` // sensor type
}

// IsEmpty reports whether the patch changes nothing.
func (p ElementPatch) IsEmpty() bool {
	return p.ID == nil && p.Name == nil && p.Position == nil && p.IP == nil &&
		p.Direction == nil && p.Rotation == nil && p.ROI == nil && p.Type == nil
}

func (c Camera) validate() error {
	switch c.Direction {
	case "", CameraInbound, CameraOutbound, CameraOverview:
		return nil
	}
	return fmt.Errorf("%w: camera %s has unknown direction '%s'", ErrInvalidGarage, c.ID, c.Direction)
}

func (s Sensor) validate() error {
	switch s.Type {
	case "", SensorNormal, SensorEV, SensorHandicap:
		return nil
	}
	return fmt.Errorf("%w: sensor %s has unknown type '%s'", ErrInvalidGarage, s.ID, s.Type)
}

func (r Ramp) validate() error {
	switch r.Direction {
	case RampUp, RampDown:
		return nil
	}
	return fmt.Errorf("%w: ramp %s has unknown direction '%s'", ErrInvalidGarage, r.ID, r.Direction)
}

func (l Level) validate() error {
	for _, c := range l.Cameras {
		if err := c.validate(); err != nil {
			return err
		}
	}
	for _, s := range l.Sensors {
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, r := range l.Ramps {
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l Level) clone() Level {
	c := l
	c.Cameras = cloneCameras(l.Cameras)
	c.Sensors = cloneSlice(l.Sensors)
	c.Entrances = cloneSlice(l.Entrances)
	c.Exits = cloneSlice(l.Exits)
	c.Ramps = cloneSlice(l.Ramps)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneCameras(cams []Camera) []Camera {
	if cams == nil {
		return nil
	}
	out := make([]Camera, len(cams))
	for i, cam := range cams {
		out[i] = cam
		if cam.ROI != nil {
			out[i].ROI = make([][]float64, len(cam.ROI))
			for j, p := range cam.ROI {
				out[i].ROI[j] = append([]float64(nil), p...)
			}
		}
	}
	return out
}
