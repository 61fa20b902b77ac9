package domain

import (
	"encoding/json"
	"time"
)

type GarageEventType string

const (
	EventGarageCreated GarageEventType = "garage-created"
	EventGarageUpdated GarageEventType = "garage-updated"
	EventGarageDeleted GarageEventType = "garage-deleted"
)

// GarageEvent is pushed to WebSocket clients (and relayed through Redis
// between API instances) after a garage document changes.
type GarageEvent struct {
	Event     GarageEventType `json:"event"`
	GarageID  string          `json:"garageId"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Room is the subscription room the event is scoped to. Created and deleted
// events go to every client and return an empty room.
func (e GarageEvent) Room() string {
	if e.Event == EventGarageUpdated {
		return GarageRoom(e.GarageID)
	}
	return ""
}

func GarageRoom(garageID string) string {
	return "garage-" + garageID
}

// NewGarageEvent builds an event carrying data as its JSON payload.
func NewGarageEvent(event GarageEventType, garageID string, data any) (GarageEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return GarageEvent{}, err
	}
	return GarageEvent{
		Event:     event,
		GarageID:  garageID,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// OccupancyReport is the body of an occupancy message sent by garage devices.
type OccupancyReport struct {
	GarageID  string  `json:"garageId"`
	Occupancy float64 `json:"occupancy"`
}
