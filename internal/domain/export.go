package domain

// ExportDocument is the YAML/JSON config file handed to garage operators.
// Top-level keys use snake_case; nested element keys match the API.
type ExportDocument struct {
	GarageID      string       `json:"garage_id" yaml:"garage_id"`
	Name          string       `json:"name" yaml:"name"`
	Levels        int          `json:"levels" yaml:"levels"`
	TotalSpaces   int          `json:"total_spaces" yaml:"total_spaces"`
	SpotsPerLevel int          `json:"spots_per_level" yaml:"spots_per_level"`
	Cameras       []Camera     `json:"cameras" yaml:"cameras"`
	Sensors       []Sensor     `json:"sensors" yaml:"sensors"`
	LevelsData    []Level      `json:"levels_data" yaml:"levels_data"`
	Status        GarageStatus `json:"status" yaml:"status"`
	Version       string       `json:"version" yaml:"version"`
}

func NewExportDocument(g *Garage) ExportDocument {
	c := g.Clone()
	return ExportDocument{
		GarageID:      c.ID,
		Name:          c.Name,
		Levels:        c.Levels,
		TotalSpaces:   c.TotalSpaces,
		SpotsPerLevel: c.SpotsPerLevel,
		Cameras:       nonNil(c.Cameras),
		Sensors:       nonNil(c.Sensors),
		LevelsData:    nonNil(c.LevelsData),
		Status:        c.Status,
		Version:       c.Version,
	}
}

// ToDTO converts an imported file back into a create request. The file's
// garage_id and total_spaces are not carried over: ids are assigned on
// create and the total is always derived from the levels.
func (d ExportDocument) ToDTO() GarageDTO {
	return GarageDTO{
		Name:          d.Name,
		Levels:        d.Levels,
		SpotsPerLevel: d.SpotsPerLevel,
		LevelsData:    d.LevelsData,
		Cameras:       d.Cameras,
		Sensors:       d.Sensors,
		Status:        d.Status,
		Version:       d.Version,
	}
}
