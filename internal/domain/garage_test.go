package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func TestGarageDTOApply_TotalSpacesIsLevelsTimesSpots(t *testing.T) {
	cases := []struct {
		levels, spots int
	}{
		{1, 50},
		{3, 50},
		{7, 12},
		{10, 1},
	}
	for _, tc := range cases {
		var g Garage
		GarageDTO{Name: "Downtown", Levels: tc.levels, SpotsPerLevel: tc.spots}.Apply(&g)

		assert.Equal(t, tc.levels, g.Levels)
		assert.Equal(t, tc.levels*tc.spots, g.TotalSpaces)
		require.Len(t, g.LevelsData, tc.levels)
		for i, l := range g.LevelsData {
			assert.Equal(t, i, l.LevelNumber)
			assert.Equal(t, tc.spots, l.SpotsPerLevel)
			assert.NotNil(t, l.Cameras)
			assert.NotNil(t, l.Ramps)
		}
	}
}

func TestGarageDTOApply_Defaults(t *testing.T) {
	var g Garage
	GarageDTO{Name: "Airport", Levels: 2}.Apply(&g)

	assert.Equal(t, DefaultSpotsPerLevel, g.SpotsPerLevel)
	assert.Equal(t, 2*DefaultSpotsPerLevel, g.TotalSpaces)
	assert.Equal(t, GarageActive, g.Status)
	assert.Equal(t, DefaultVersion, g.Version)
	assert.Equal(t, 1, g.Entrances)
	assert.Equal(t, 1, g.Exits)
	assert.Equal(t, "Level 1", g.LevelsData[0].Name)
	assert.Equal(t, []Camera{}, g.Cameras)
}

func TestGarageDTOApply_ExplicitZeroGates(t *testing.T) {
	var g Garage
	GarageDTO{Name: "Mall", Levels: 1, Entrances: null.IntFrom(0), Exits: null.IntFrom(3)}.Apply(&g)

	assert.Equal(t, 0, g.Entrances)
	assert.Equal(t, 3, g.Exits)
}

func TestGarageDTOApply_LevelsDataWins(t *testing.T) {
	var g Garage
	GarageDTO{
		Name:   "Custom",
		Levels: 9,
		LevelsData: []Level{
			{Name: "Ground", SpotsPerLevel: 20},
			{SpotsPerLevel: 35},
			{},
		},
		SpotsPerLevel: 10,
	}.Apply(&g)

	assert.Equal(t, 3, g.Levels)
	assert.Equal(t, 20+35+10, g.TotalSpaces)
	assert.Equal(t, "Ground", g.LevelsData[0].Name)
	assert.Equal(t, "Level 2", g.LevelsData[1].Name)
	assert.Equal(t, 2, g.LevelsData[2].LevelNumber)
}

func TestGarageValidate(t *testing.T) {
	valid := func() *Garage {
		var g Garage
		GarageDTO{Name: "Valid", Levels: 1}.Apply(&g)
		return &g
	}

	require.NoError(t, valid().Validate())

	g := valid()
	g.Name = ""
	assert.ErrorIs(t, g.Validate(), ErrInvalidGarage)

	g = valid()
	g.Status = "closed"
	assert.ErrorIs(t, g.Validate(), ErrInvalidGarage)

	g = valid()
	g.Occupancy = 101
	assert.ErrorIs(t, g.Validate(), ErrInvalidGarage)

	g = valid()
	g.LevelsData[0].Cameras = append(g.LevelsData[0].Cameras, Camera{ID: "cam1", Direction: "sideways"})
	assert.ErrorIs(t, g.Validate(), ErrInvalidGarage)

	g = valid()
	g.LevelsData[0].Sensors = append(g.LevelsData[0].Sensors, Sensor{ID: "s1", Type: SensorEV})
	assert.NoError(t, g.Validate())

	g = valid()
	g.LevelsData[0].Ramps = append(g.LevelsData[0].Ramps, Ramp{ID: "r1"})
	assert.ErrorIs(t, g.Validate(), ErrInvalidGarage)

	var empty Garage
	GarageDTO{Name: "No levels"}.Apply(&empty)
	assert.ErrorIs(t, empty.Validate(), ErrInvalidGarage)
}

func TestGarageClone_IsDeep(t *testing.T) {
	var g Garage
	GarageDTO{Name: "Clone", Levels: 1}.Apply(&g)
	g.LevelsData[0].Cameras = []Camera{{ID: "cam1", ROI: [][]float64{{1, 2}}}}

	c := g.Clone()
	c.LevelsData[0].Cameras[0].ID = "changed"
	c.LevelsData[0].Cameras[0].ROI[0][0] = 99
	c.LevelsData[0].Sensors = append(c.LevelsData[0].Sensors, Sensor{ID: "s1"})

	assert.Equal(t, "cam1", g.LevelsData[0].Cameras[0].ID)
	assert.Equal(t, 1.0, g.LevelsData[0].Cameras[0].ROI[0][0])
	assert.Empty(t, g.LevelsData[0].Sensors)
}

func TestParseElementType(t *testing.T) {
	typ, dir, err := ParseElementType("ramp-down")
	require.NoError(t, err)
	assert.Equal(t, ElementRamp, typ)
	assert.Equal(t, RampDown, dir)

	typ, dir, err = ParseElementType("camera")
	require.NoError(t, err)
	assert.Equal(t, ElementCamera, typ)
	assert.Empty(t, dir)

	_, _, err = ParseElementType("elevator")
	assert.ErrorIs(t, err, ErrInvalidElementType)
}

func TestGarageEventRoom(t *testing.T) {
	ev, err := NewGarageEvent(EventGarageUpdated, "abc", map[string]string{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "garage-abc", ev.Room())
	assert.JSONEq(t, `{"name":"x"}`, string(ev.Data))

	ev, err = NewGarageEvent(EventGarageDeleted, "abc", "abc")
	require.NoError(t, err)
	assert.Empty(t, ev.Room())

	var decoded GarageEvent
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, EventGarageDeleted, decoded.Event)
}
