package gateway

import (
	"context"
	"time"

	"github.com/mcdev12/racer/go/internal/models"
	"github.com/mcdev12/racer/go/internal/race/orchestrator"
	"github.com/rs/zerolog/log"
)

// Catalog lists what a player can pick from
type Catalog interface {
	GetTracks(ctx context.Context) ([]models.Track, error)
	GetRacers(ctx context.Context) ([]models.Racer, error)
}

// Config holds configuration for the race gateway
type Config struct {
	ConnectionConfig ConnectionConfig
	// TeardownOnClose cancels the running race when the last view disconnects
	TeardownOnClose bool
	CommandTimeout  time.Duration
}

// DefaultConfig returns default configuration for the race gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		TeardownOnClose:  true,
		CommandTimeout:   5 * time.Second,
	}
}

// Service connects browser views to the race controller
type Service struct {
	connectionManager *ConnectionManager
	controller        *orchestrator.Controller
	catalog           Catalog
	config            Config
}

// NewService wires the connection manager's client commands and view
// lifecycle to the controller. cm is usually also the render.Publisher
// behind the controller's renderer.
func NewService(config Config, cm *ConnectionManager, controller *orchestrator.Controller, catalog Catalog) *Service {
	s := &Service{
		connectionManager: cm,
		controller:        controller,
		catalog:           catalog,
		config:            config,
	}

	cm.OnMessage(s.handleClientMessage)
	if config.TeardownOnClose {
		cm.OnEmpty(func() {
			log.Info().Msg("last race view closed, tearing down session")
			controller.OnViewClosed()
		})
	}

	return s
}

// Start runs the connection manager until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting race gateway service")

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("race gateway service shutting down")
	s.controller.OnViewClosed()
	return nil
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	orch := s.controller.Orchestrator()
	return map[string]interface{}{
		"service":           "race_gateway",
		"total_connections": s.connectionManager.ConnectionCount(),
		"state":             string(orch.State()),
		"race_id":           orch.SessionID(),
	}
}

func (s *Service) handleClientMessage(msg ClientMessage) {
	switch msg.Type {
	case ClientMessageAccelerate:
		ctx, cancel := context.WithTimeout(context.Background(), s.config.CommandTimeout)
		defer cancel()
		s.controller.OnAccelerate(ctx)
	default:
		log.Debug().Str("type", msg.Type).Msg("unknown client message type")
	}
}
