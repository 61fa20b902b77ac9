package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"garage_config/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatYAML, "yaml": FormatYAML, "YML": FormatYAML, "json": FormatJSON}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, FormatJSON, FormatFromContentType("application/json; charset=utf-8"))
	assert.Equal(t, FormatYAML, FormatFromContentType("text/yaml"))
	assert.Equal(t, FormatYAML, FormatFromContentType(""))
}

func exportFixture(t *testing.T, svc *GarageService) *domain.Garage {
	t.Helper()
	ctx := context.Background()
	g, err := svc.Create(ctx, domain.GarageDTO{
		Name:    "Central",
		Levels:  2,
		Cameras: []domain.Camera{{ID: "wiz-cam", IP: "10.1.1.1", Direction: domain.CameraOverview}},
		Sensors: []domain.Sensor{{ID: "wiz-s", Type: domain.SensorEV, Position: domain.Vector3{1, 0, 1}}},
	})
	require.NoError(t, err)
	placed, err := svc.AddElement(ctx, g.ID, 0, "camera", domain.Vector3{2, 3, 4})
	require.NoError(t, err)
	rot := domain.Vector3{0, 1.5707963267948966, 0}
	_, _, err = svc.UpdateElement(ctx, g.ID, 0, "camera", placed.Data.(domain.Camera).ID, domain.ElementPatch{
		Rotation: &rot,
		ROI:      [][]float64{{0, 0}, {0.5, 0}, {0.5, 0.5}},
	})
	require.NoError(t, err)
	_, err = svc.AddElement(ctx, g.ID, 1, "ramp-down", domain.Vector3{})
	require.NoError(t, err)

	g, err = svc.Get(ctx, g.ID)
	require.NoError(t, err)
	return g
}

func TestExport_YAMLRoundTripKeepsElements(t *testing.T) {
	svc, _ := newTestGarageService(t)
	g := exportFixture(t, svc)

	file, err := svc.Export(context.Background(), g.ID, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "text/yaml", file.ContentType)
	assert.Equal(t, "garage-"+g.ID+".yaml", file.Filename)
	assert.Contains(t, string(file.Data), "garage_id: "+g.ID)
	assert.Contains(t, string(file.Data), "total_spaces: 100")

	doc, err := DecodeExport(file.Data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, g.Cameras, doc.Cameras)
	assert.Equal(t, g.Sensors, doc.Sensors)
	require.Len(t, doc.LevelsData, 2)
	assert.Equal(t, g.LevelsData[0].Cameras, doc.LevelsData[0].Cameras)
	assert.Equal(t, g.LevelsData[1].Ramps, doc.LevelsData[1].Ramps)
}

func TestExport_JSONIsIndented(t *testing.T) {
	svc, _ := newTestGarageService(t)
	g := exportFixture(t, svc)

	file, err := svc.Export(context.Background(), g.ID, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", file.ContentType)
	assert.Equal(t, "garage-"+g.ID+".json", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Data), "{\n  \"garage_id\""))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(file.Data, &raw))
	for _, key := range []string{"garage_id", "name", "levels", "total_spaces", "spots_per_level", "cameras", "sensors", "levels_data", "status", "version"} {
		assert.Contains(t, raw, key)
	}
}

func TestImport_CreatesNewGarage(t *testing.T) {
	svc, pub := newTestGarageService(t)
	g := exportFixture(t, svc)
	file, err := svc.Export(context.Background(), g.ID, FormatYAML)
	require.NoError(t, err)

	imported, err := svc.Import(context.Background(), file.Data, FormatYAML)
	require.NoError(t, err)
	assert.NotEqual(t, g.ID, imported.ID)
	assert.Equal(t, g.Name, imported.Name)
	assert.Equal(t, g.TotalSpaces, imported.TotalSpaces)
	assert.Equal(t, g.LevelsData[0].Cameras, imported.LevelsData[0].Cameras)
	assert.Equal(t, domain.EventGarageCreated, pub.events[len(pub.events)-1].Event)
}

func TestImport_RejectsBadInput(t *testing.T) {
	svc, _ := newTestGarageService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []byte("name: [unclosed"), FormatYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidGarage)

	_, err = svc.Import(ctx, []byte(`{"levels": 2}`), FormatJSON)
	assert.ErrorIs(t, err, domain.ErrInvalidGarage)

	_, err = svc.Import(ctx, []byte(`{}`), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
