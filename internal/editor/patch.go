package editor

import "garage_config/internal/domain"

func patchCamera(c *domain.Camera, p domain.ElementPatch) {
	if p.ID != nil {
		c.ID = *p.ID
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.IP != nil {
		c.IP = *p.IP
	}
	if p.Direction != nil {
		c.Direction = domain.CameraDirection(*p.Direction)
	}
	if p.Rotation != nil {
		// yaw only
		c.Rotation = domain.Vector3{0, p.Rotation[1], 0}
	}
	if p.ROI != nil {
		c.ROI = p.ROI
	}
}

func patchSensor(s *domain.Sensor, p domain.ElementPatch) {
	if p.ID != nil {
		s.ID = *p.ID
	}
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.Type != nil {
		s.Type = domain.SensorType(*p.Type)
	}
}

func patchGate(g *domain.Gate, p domain.ElementPatch) {
	if p.ID != nil {
		g.ID = *p.ID
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Position != nil {
		g.Position = *p.Position
	}
}

func patchRamp(r *domain.Ramp, p domain.ElementPatch) {
	if p.ID != nil {
		r.ID = *p.ID
	}
	if p.Position != nil {
		r.Position = *p.Position
	}
	if p.Direction != nil {
		r.Direction = domain.RampDirection(*p.Direction)
	}
}
