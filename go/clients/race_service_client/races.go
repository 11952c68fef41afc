package race_service_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/racer/go/clients"
	"github.com/mcdev12/racer/go/internal/models"
)

type createRaceRequest struct {
	PlayerID int `json:"player_id"`
	TrackID  int `json:"track_id"`
}

// CreateRaceResponse is the race service's acknowledgement of a new race
type CreateRaceResponse struct {
	ID       int               `json:"ID"`
	Track    models.Track      `json:"Track"`
	PlayerID int               `json:"PlayerID"`
	Cars     []models.Racer    `json:"Cars"`
	Results  RaceStateResponse `json:"Results"`
}

// RaceStateResponse is the live state of a race
type RaceStateResponse struct {
	Status    models.RaceStatus `json:"status"`
	Positions []models.Position `json:"positions"`
}

// CreateRace registers a new race for the racer on the track. The returned
// session is always pending.
func (c *RaceServiceClient) CreateRace(ctx context.Context, trackID, racerID int) (*models.RaceSession, error) {
	payload, err := json.Marshal(createRaceRequest{PlayerID: racerID, TrackID: trackID})
	if err != nil {
		return nil, &clients.ServiceError{Op: "create race", Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	body, err := c.Post(ctx, RacesEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var response CreateRaceResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &clients.ServiceError{
			Op:  "create race",
			Err: fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body)),
		}
	}
	if response.ID <= 0 {
		return nil, &clients.ServiceError{Op: "create race", Err: fmt.Errorf("response carries no race id: %s", string(body))}
	}

	trackRef := response.Track.ID
	if trackRef == 0 {
		trackRef = trackID
	}

	return &models.RaceSession{
		ID:        response.ID,
		TrackID:   trackRef,
		Status:    models.RaceStatusPending,
		Positions: response.Results.Positions,
	}, nil
}

// GetRace fetches the current state of a race
func (c *RaceServiceClient) GetRace(ctx context.Context, raceID int) (*models.RaceSession, error) {
	body, err := c.Get(ctx, raceEndpoint(raceID, ""))
	if err != nil {
		return nil, err
	}

	var response RaceStateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &clients.ServiceError{
			Op:  "get race",
			Err: fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body)),
		}
	}

	return &models.RaceSession{
		ID:        raceID,
		Status:    response.Status,
		Positions: response.Positions,
	}, nil
}

// StartRace asks the service to begin the race
func (c *RaceServiceClient) StartRace(ctx context.Context, raceID int) error {
	_, err := c.Post(ctx, raceEndpoint(raceID, StartSuffix), nil)
	return err
}

// Accelerate sends one accelerate input for the player's racer
func (c *RaceServiceClient) Accelerate(ctx context.Context, raceID int) error {
	_, err := c.Post(ctx, raceEndpoint(raceID, AccelerateSuffix), nil)
	return err
}

func raceEndpoint(raceID int, suffix string) string {
	return fmt.Sprintf("%s/%d%s", RacesEndpoint, raceID, suffix)
}
