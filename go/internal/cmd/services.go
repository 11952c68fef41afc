package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/racer/go/clients/race_service_client"
	"github.com/mcdev12/racer/go/internal/config"
	"github.com/mcdev12/racer/go/internal/race/countdown"
	"github.com/mcdev12/racer/go/internal/race/events"
	"github.com/mcdev12/racer/go/internal/race/gateway"
	"github.com/mcdev12/racer/go/internal/race/orchestrator"
	"github.com/mcdev12/racer/go/internal/race/render"
	"github.com/mcdev12/racer/go/internal/race/selection"
	"github.com/rs/zerolog/log"
)

type Services struct {
	RaceClient  *race_service_client.RaceServiceClient
	Connections *gateway.ConnectionManager
	Controller  *orchestrator.Controller
	Gateway     *gateway.Service

	closePublisher func() error
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Race client → Renderer → Orchestrator → Controller → Gateway

	raceClient := race_service_client.NewRaceServiceClient(cfg.RaceService.URL)
	raceClient.SetTimeout(cfg.RaceService.Timeout)

	publisher, closePublisher, err := setupPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.TeardownOnClose = cfg.Gateway.TeardownOnClose
	connections := gateway.NewConnectionManager(gatewayConfig.ConnectionConfig)

	renderer := render.NewHTMLRenderer(connections, cfg.Race.CountdownFrom)
	orch := orchestrator.NewOrchestrator(raceClient, renderer,
		orchestrator.WithPublisher(publisher),
		orchestrator.WithBaseContext(ctx),
		orchestrator.WithPollInterval(cfg.Race.PollInterval),
		orchestrator.WithCountdown(
			countdown.WithFrom(cfg.Race.CountdownFrom),
			countdown.WithSettleDelay(cfg.Race.CountdownDelay),
			countdown.WithInterval(cfg.Race.CountdownInterval),
		),
	)
	controller := orchestrator.NewController(selection.NewStore(), orch)

	return &Services{
		RaceClient:     raceClient,
		Connections:    connections,
		Controller:     controller,
		Gateway:        gateway.NewService(gatewayConfig, connections, controller, raceClient),
		closePublisher: closePublisher,
	}, nil
}

// setupPublisher connects to JetStream when enabled; otherwise lifecycle
// events are dropped
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

	log.Info().Str("stream", jsConfig.StreamName).Msg("publishing race events to JetStream")
	return publisher, publisher.Close, nil
}

func (s *Services) Close() {
	if err := s.closePublisher(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
}
