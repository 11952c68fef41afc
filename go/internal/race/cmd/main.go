// Command race runs a single race in the terminal. Press Enter to accelerate.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mcdev12/racer/go/clients/race_service_client"
	"github.com/mcdev12/racer/go/internal/config"
	"github.com/mcdev12/racer/go/internal/models"
	"github.com/mcdev12/racer/go/internal/race/countdown"
	"github.com/mcdev12/racer/go/internal/race/events"
	"github.com/mcdev12/racer/go/internal/race/orchestrator"
	"github.com/mcdev12/racer/go/internal/race/render"
	"github.com/mcdev12/racer/go/internal/race/selection"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	configPath := flag.String("config", getEnv("RACER_CONFIG", "racer.yaml"), "path to the YAML config file")
	trackID := flag.Int("track", 0, "track ID (default: first listed track)")
	racerID := flag.Int("racer", 0, "racer ID (default: first listed racer)")
	transcript := flag.String("transcript", "", "also write the race transcript to this file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *trackID, *racerID, *transcript); err != nil {
		log.Fatal().Err(err).Msg("race failed")
	}
}

func run(ctx context.Context, cfg *config.Config, trackID, racerID int, transcript string) error {
	client := race_service_client.NewRaceServiceClient(cfg.RaceService.URL)
	client.SetTimeout(cfg.RaceService.Timeout)

	sinks := render.Fanout{render.NewTextRenderer(os.Stdout)}
	if transcript != "" {
		f, err := os.Create(transcript)
		if err != nil {
			return fmt.Errorf("failed to create transcript: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, render.NewTextRenderer(f))
	}

	publisher, closePublisher, err := setupPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	orch := orchestrator.NewOrchestrator(client, sinks,
		orchestrator.WithPublisher(publisher),
		orchestrator.WithBaseContext(ctx),
		orchestrator.WithPollInterval(cfg.Race.PollInterval),
		orchestrator.WithCountdown(
			countdown.WithFrom(cfg.Race.CountdownFrom),
			countdown.WithSettleDelay(cfg.Race.CountdownDelay),
			countdown.WithInterval(cfg.Race.CountdownInterval),
		),
	)
	ctrl := orchestrator.NewController(selection.NewStore(), orch)

	track, racer, err := pick(ctx, client, trackID, racerID)
	if err != nil {
		return err
	}
	ctrl.OnTrackSelected(track.ID, track.Name)
	ctrl.OnRacerSelected(racer.ID, racer.DriverName)

	if err := ctrl.OnStartRace(ctx); err != nil {
		return err
	}

	go readAccelerate(ctx, ctrl)

	result, err := orch.Wait(ctx)
	if err != nil {
		ctrl.OnViewClosed()
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("race abandoned")
			return nil
		}
		return err
	}

	log.Info().Int("race_id", result.ID).Msg("race finished")
	return nil
}

// pick resolves the requested track and racer, defaulting to the first of
// each from the catalog
func pick(ctx context.Context, client *race_service_client.RaceServiceClient, trackID, racerID int) (models.Track, models.Racer, error) {
	tracks, err := client.GetTracks(ctx)
	if err != nil {
		return models.Track{}, models.Racer{}, fmt.Errorf("failed to list tracks: %w", err)
	}
	racers, err := client.GetRacers(ctx)
	if err != nil {
		return models.Track{}, models.Racer{}, fmt.Errorf("failed to list racers: %w", err)
	}

	track, ok := findTrack(tracks, trackID)
	if !ok {
		return models.Track{}, models.Racer{}, fmt.Errorf("track %d not found", trackID)
	}
	racer, ok := findRacer(racers, racerID)
	if !ok {
		return models.Track{}, models.Racer{}, fmt.Errorf("racer %d not found", racerID)
	}
	return track, racer, nil
}

func findTrack(tracks []models.Track, id int) (models.Track, bool) {
	for _, t := range tracks {
		if id <= 0 || t.ID == id {
			return t, true
		}
	}
	return models.Track{}, false
}

func findRacer(racers []models.Racer, id int) (models.Racer, bool) {
	for _, r := range racers {
		if id <= 0 || r.ID == id {
			return r, true
		}
	}
	return models.Racer{}, false
}

// readAccelerate accelerates once per line read from stdin
func readAccelerate(ctx context.Context, ctrl *orchestrator.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		ctrl.OnAccelerate(ctx)
	}
}

func setupPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, func() error, error) {
	if !cfg.NATS.Enabled {
		return events.NopPublisher{}, func() error { return nil }, nil
	}

	jsConfig := events.DefaultJetStreamConfig()
	jsConfig.URL = cfg.NATS.URL
	jsConfig.StreamName = cfg.NATS.StreamName

	publisher, err := events.NewJetStreamPublisher(ctx, jsConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return publisher, publisher.Close, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
