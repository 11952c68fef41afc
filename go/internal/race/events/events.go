// Package events publishes race lifecycle events for other consumers
// (dashboards, replay tooling). Publishing is best effort.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/racer/go/internal/models"
)

// EventType names a race lifecycle event
type EventType string

const (
	EventTypeRaceCreated       EventType = "RaceCreated"
	EventTypeCountdownFinished EventType = "CountdownFinished"
	EventTypeRaceStarted       EventType = "RaceStarted"
	EventTypeRaceFinished      EventType = "RaceFinished"
	EventTypeRaceFailed        EventType = "RaceFailed"
	EventTypeRaceCancelled     EventType = "RaceCancelled"
)

// RaceEvent is one lifecycle transition of a race session
type RaceEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	RaceID     int               `json:"race_id,omitempty"`
	TrackID    int               `json:"track_id"`
	RacerID    int               `json:"racer_id"`
	Status     models.RaceStatus `json:"status,omitempty"`
	Standings  []models.Standing `json:"standings,omitempty"`
	Error      string            `json:"error,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewRaceEvent stamps a fresh event ID
func NewRaceEvent(eventType EventType, raceID int, at time.Time) RaceEvent {
	return RaceEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		RaceID:     raceID,
		OccurredAt: at.UTC(),
	}
}

// Publisher sends race events somewhere
type Publisher interface {
	Publish(ctx context.Context, event RaceEvent) error
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event RaceEvent) error {
	return nil
}
