package race_service_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/racer/go/clients"
	"github.com/mcdev12/racer/go/internal/models"
)

// GetTracks lists the tracks a race can be run on
func (c *RaceServiceClient) GetTracks(ctx context.Context) ([]models.Track, error) {
	body, err := c.Get(ctx, TracksEndpoint)
	if err != nil {
		return nil, err
	}

	var tracks []models.Track
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, &clients.ServiceError{
			Op:  "get tracks",
			Err: fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body)),
		}
	}

	return tracks, nil
}

// GetRacers lists the racers (cars) that can be entered
func (c *RaceServiceClient) GetRacers(ctx context.Context) ([]models.Racer, error) {
	body, err := c.Get(ctx, CarsEndpoint)
	if err != nil {
		return nil, err
	}

	var racers []models.Racer
	if err := json.Unmarshal(body, &racers); err != nil {
		return nil, &clients.ServiceError{
			Op:  "get racers",
			Err: fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body)),
		}
	}

	return racers, nil
}
