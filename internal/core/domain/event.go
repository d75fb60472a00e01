package domain

import "time"

// EventPositionUpdated is the broadcast event name observers subscribe to.
const EventPositionUpdated = "position_updated"

// PositionUpdated is fanned out to every connected observer after an ingestion.
type PositionUpdated struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Coordinates Point     `json:"coordinates"`
	Timestamp   time.Time `json:"timestamp"`
}

// Envelope is the frame written to observer channels.
type Envelope struct {
	Event string          `json:"event"`
	Data  PositionUpdated `json:"data"`
}
