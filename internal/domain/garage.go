package domain

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

var ErrInvalidGarage = errors.New("invalid garage configuration")

type GarageStatus string

const (
	GarageActive      GarageStatus = "active"
	GarageInactive    GarageStatus = "inactive"
	GarageMaintenance GarageStatus = "maintenance"
)

const (
	DefaultSpotsPerLevel = 50
	DefaultVersion       = "1.0.0"
)

// Garage is the persisted configuration document for one parking structure.
type Garage struct {
	ID            string       `json:"_id"`
	Name          string       `json:"name"`
	Levels        int          `json:"levels"`
	SpotsPerLevel int          `json:"spotsPerLevel"`
	TotalSpaces   int          `json:"totalSpaces"`
	Entrances     int          `json:"entrances"`
	Exits         int          `json:"exits"`
	LevelsData    []Level      `json:"levelsData"`
	Cameras       []Camera     `json:"cameras"` // flat list written by the quick wizard
	Sensors       []Sensor     `json:"sensors"`
	Status        GarageStatus `json:"status"`
	Occupancy     float64      `json:"occupancy"`
	Version       string       `json:"version"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// GarageDTO is the body accepted by create and import.
type GarageDTO struct {
	Name          string       `json:"name" binding:"required"`
	Levels        int          `json:"levels"`
	SpotsPerLevel int          `json:"spotsPerLevel"`
	Entrances     null.Int     `json:"entrances"`
	Exits         null.Int     `json:"exits"`
	LevelsData    []Level      `json:"levelsData"`
	Cameras       []Camera     `json:"cameras"`
	Sensors       []Sensor     `json:"sensors"`
	Status        GarageStatus `json:"status"`
	Occupancy     null.Float   `json:"occupancy"`
	Version       string       `json:"version"`
}

// GarageUpdateDTO is the body accepted by update. Absent fields keep their
// stored values.
type GarageUpdateDTO struct {
	Name          null.String `json:"name"`
	Levels        null.Int    `json:"levels"`
	SpotsPerLevel null.Int    `json:"spotsPerLevel"`
	Entrances     null.Int    `json:"entrances"`
	Exits         null.Int    `json:"exits"`
	LevelsData    []Level     `json:"levelsData"`
	Cameras       []Camera    `json:"cameras"`
	Sensors       []Sensor    `json:"sensors"`
	Status        null.String `json:"status"`
	Occupancy     null.Float  `json:"occupancy"`
	Version       null.String `json:"version"`
}

type GarageFilter struct {
	Status null.String
}

// Matches reports whether g passes the filter.
func (f GarageFilter) Matches(g *Garage) bool {
	if f.Status.Valid && string(g.Status) != f.Status.String {
		return false
	}
	return true
}

// Apply copies the DTO onto g and normalises the document: defaults are
// filled, level ordinals renumbered and TotalSpaces recomputed.
func (dto GarageDTO) Apply(g *Garage) {
	g.Name = dto.Name
	g.SpotsPerLevel = dto.SpotsPerLevel
	if g.SpotsPerLevel <= 0 {
		g.SpotsPerLevel = DefaultSpotsPerLevel
	}
	g.Entrances = int(dto.Entrances.ValueOrZero())
	if !dto.Entrances.Valid {
		g.Entrances = 1
	}
	g.Exits = int(dto.Exits.ValueOrZero())
	if !dto.Exits.Valid {
		g.Exits = 1
	}
	g.Status = dto.Status
	if g.Status == "" {
		g.Status = GarageActive
	}
	g.Occupancy = dto.Occupancy.ValueOrZero()
	g.Version = dto.Version
	if g.Version == "" {
		g.Version = DefaultVersion
	}
	g.Cameras = nonNil(dto.Cameras)
	g.Sensors = nonNil(dto.Sensors)

	if len(dto.LevelsData) > 0 {
		g.LevelsData = dto.LevelsData
	} else {
		g.LevelsData = BuildLevels(dto.Levels, g.SpotsPerLevel)
	}
	g.Levels = len(g.LevelsData)
	g.Normalize()
}

// Merge overlays the fields present in the DTO onto g. A new SpotsPerLevel
// without LevelsData is applied to every stored level. The level count is
// left to the caller, since growing or shrinking needs the editor.
func (dto GarageUpdateDTO) Merge(g *Garage) {
	if dto.Name.Valid {
		g.Name = dto.Name.String
	}
	if dto.SpotsPerLevel.Valid && dto.SpotsPerLevel.Int64 > 0 {
		g.SpotsPerLevel = int(dto.SpotsPerLevel.Int64)
		if dto.LevelsData == nil {
			for i := range g.LevelsData {
				g.LevelsData[i].SpotsPerLevel = g.SpotsPerLevel
			}
		}
	}
	if dto.Entrances.Valid {
		g.Entrances = int(dto.Entrances.Int64)
	}
	if dto.Exits.Valid {
		g.Exits = int(dto.Exits.Int64)
	}
	if dto.LevelsData != nil {
		g.LevelsData = dto.LevelsData
	}
	if dto.Cameras != nil {
		g.Cameras = dto.Cameras
	}
	if dto.Sensors != nil {
		g.Sensors = dto.Sensors
	}
	if dto.Status.Valid {
		g.Status = GarageStatus(dto.Status.String)
	}
	if dto.Occupancy.Valid {
		g.Occupancy = dto.Occupancy.Float64
	}
	if dto.Version.Valid && dto.Version.String != "" {
		g.Version = dto.Version.String
	}
	g.Normalize()
}

// Normalize renumbers levels, fills per-level defaults and recomputes
// TotalSpaces as the sum of the per-level spot counts.
func (g *Garage) Normalize() {
	total := 0
	for i := range g.LevelsData {
		l := &g.LevelsData[i]
		l.LevelNumber = i
		if l.Name == "" {
			l.Name = fmt.Sprintf("Level %d", i+1)
		}
		if l.SpotsPerLevel <= 0 {
			l.SpotsPerLevel = g.SpotsPerLevel
		}
		l.Cameras = nonNil(l.Cameras)
		l.Sensors = nonNil(l.Sensors)
		l.Entrances = nonNil(l.Entrances)
		l.Exits = nonNil(l.Exits)
		l.Ramps = nonNil(l.Ramps)
		total += l.SpotsPerLevel
	}
	g.Levels = len(g.LevelsData)
	g.TotalSpaces = total
	g.Cameras = nonNil(g.Cameras)
	g.Sensors = nonNil(g.Sensors)
}

// Validate checks the enumerations and ranges of a normalised document.
func (g *Garage) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidGarage)
	}
	if g.Levels < 1 {
		return fmt.Errorf("%w: a garage needs at least one level", ErrInvalidGarage)
	}
	switch g.Status {
	case GarageActive, GarageInactive, GarageMaintenance:
	default:
		return fmt.Errorf("%w: unknown status '%s'", ErrInvalidGarage, g.Status)
	}
	if g.Occupancy < 0 || g.Occupancy > 100 {
		return fmt.Errorf("%w: occupancy %.2f is outside 0..100", ErrInvalidGarage, g.Occupancy)
	}
	for _, cam := range g.Cameras {
		if err := cam.validate(); err != nil {
			return err
		}
	}
	for _, s := range g.Sensors {
		if err := s.validate(); err != nil {
			return err
		}
	}
	for i, l := range g.LevelsData {
		if err := l.validate(); err != nil {
			return fmt.Errorf("level %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy so stored documents are never shared with callers.
func (g *Garage) Clone() *Garage {
	if g == nil {
		return nil
	}
	c := *g
	c.Cameras = cloneCameras(g.Cameras)
	c.Sensors = cloneSlice(g.Sensors)
	if g.LevelsData != nil {
		c.LevelsData = make([]Level, len(g.LevelsData))
		for i, l := range g.LevelsData {
			c.LevelsData[i] = l.clone()
		}
	}
	return &c
}

// BuildLevels creates n empty levels with the given spot count each.
func BuildLevels(n, spotsPerLevel int) []Level {
	if n < 0 {
		n = 0
	}
	levels := make([]Level, n)
	for i := range levels {
		levels[i] = NewLevel(i, spotsPerLevel)
	}
	return levels
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
