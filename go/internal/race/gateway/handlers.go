package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/racer/go/internal/race/orchestrator"
	"github.com/mcdev12/racer/go/internal/race/render"
	"github.com/rs/zerolog/log"
)

type selectRequest struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type startResponse struct {
	RaceID int    `json:"race_id"`
	State  string `json:"state"`
}

type catalogResponse struct {
	Tracks string `json:"tracks"`
	Racers string `json:"racers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes registers the page, command and WebSocket routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /select/track", s.handleSelectTrack)
	mux.HandleFunc("POST /select/racer", s.handleSelectRacer)
	mux.HandleFunc("POST /race/start", s.handleStartRace)
	mux.HandleFunc("POST /race/accelerate", s.handleAccelerate)
	mux.HandleFunc("GET /ws", s.handleConnection)
	log.Info().Msg("race gateway routes registered")
}

func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(indexPage)); err != nil {
		log.Error().Err(err).Msg("failed to write index page")
	}
}

func (s *Service) handleCatalog(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.catalog.GetTracks(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load tracks")
		writeError(w, http.StatusBadGateway, "failed to load tracks")
		return
	}

	racers, err := s.catalog.GetRacers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load racers")
		writeError(w, http.StatusBadGateway, "failed to load racers")
		return
	}

	writeJSON(w, http.StatusOK, catalogResponse{
		Tracks: render.TrackCards(tracks),
		Racers: render.RacerCards(racers),
	})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetStats())
}

func (s *Service) handleSelectTrack(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSelection(w, r)
	if !ok {
		return
	}
	s.controller.OnTrackSelected(req.ID, req.Label)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleSelectRacer(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSelection(w, r)
	if !ok {
		return
	}
	s.controller.OnRacerSelected(req.ID, req.Label)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleStartRace(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.OnStartRace(r.Context()); err != nil {
		status := statusForStartError(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("failed to start race")
		}
		writeError(w, status, err.Error())
		return
	}

	orch := s.controller.Orchestrator()
	writeJSON(w, http.StatusAccepted, startResponse{
		RaceID: orch.SessionID(),
		State:  string(orch.State()),
	})
}

func (s *Service) handleAccelerate(w http.ResponseWriter, r *http.Request) {
	s.controller.OnAccelerate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleConnection upgrades a race view to the instruction stream
func (s *Service) handleConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.connectionManager.UpgradeConnection(w, r); err != nil {
		// the upgrader has already replied to the client
		log.Error().Err(err).Msg("failed to open race view")
	}
}

func statusForStartError(err error) int {
	var validationErr *orchestrator.ValidationError
	var createErr *orchestrator.CreateRaceError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &createErr):
		return http.StatusBadGateway
	case errors.Is(err, orchestrator.ErrSessionActive), errors.Is(err, orchestrator.ErrTornDown):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeSelection(w http.ResponseWriter, r *http.Request) (selectRequest, bool) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id must be positive")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
