// Package poller follows a running race by fetching its state at a fixed
// cadence until the race service reports it finished.
//
// Polling is fixed-delay: the wait for the next tick only starts after the
// previous fetch has been processed, so fetches for a race never overlap and
// a slow service stretches the cadence instead of piling up requests.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racer/go/internal/models"
	"github.com/mcdev12/racer/go/internal/race/schedule"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 500 * time.Millisecond

var errEmptyResponse = errors.New("race service returned no race")

// Fetcher is what the poller needs from the race service
type Fetcher interface {
	GetRace(ctx context.Context, raceID int) (*models.RaceSession, error)
}

// Sink receives the leaderboards produced by the poller
type Sink interface {
	RenderProgress(ctx context.Context, standings []models.Standing) error
	RenderResults(ctx context.Context, standings []models.Standing) error
}

type Poller struct {
	fetcher  Fetcher
	clock    clockwork.Clock
	sink     Sink
	interval time.Duration
}

type Option func(*Poller)

func WithClock(clock clockwork.Clock) Option {
	return func(p *Poller) { p.clock = clock }
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// New creates a poller reading from fetcher and rendering into sink
func New(fetcher Fetcher, sink Sink, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		clock:    clockwork.NewRealClock(),
		sink:     sink,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls race raceID on behalf of racer selfID. The handle resolves with
// the finished race; cancelling it stops polling without resolving.
func (p *Poller) Start(ctx context.Context, raceID, selfID int) *schedule.Handle[*models.RaceSession] {
	return schedule.Start(ctx, func(ctx context.Context, emit schedule.Emitter) (*models.RaceSession, error) {
		return p.run(ctx, emit, raceID, selfID)
	})
}

func (p *Poller) run(ctx context.Context, emit schedule.Emitter, raceID, selfID int) (*models.RaceSession, error) {
	for tick := 1; ; tick++ {
		if err := schedule.Sleep(ctx, p.clock, p.interval); err != nil {
			return nil, err
		}

		race, err := p.fetch(ctx, raceID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// a transient failure must not abort a healthy race
			log.Warn().
				Err(err).
				Int("race_id", raceID).
				Int("tick", tick).
				Msg("race poll failed; retrying on next tick")
			continue
		}

		switch race.Status {
		case models.RaceStatusInProgress:
			standings := Rank(race.Positions, selfID)
			if !emit.Emit(func() { p.render(ctx, raceID, standings, false) }) {
				return nil, schedule.Stopped(ctx)
			}

		case models.RaceStatusFinished:
			standings := Rank(race.Positions, selfID)
			if !emit.Emit(func() { p.render(ctx, raceID, standings, true) }) {
				return nil, schedule.Stopped(ctx)
			}
			log.Info().
				Int("race_id", raceID).
				Int("ticks", tick).
				Msg("race finished")
			return race, nil

		default:
			log.Debug().
				Int("race_id", raceID).
				Str("status", string(race.Status)).
				Msg("race not running yet")
		}
	}
}

func (p *Poller) fetch(ctx context.Context, raceID int) (*models.RaceSession, error) {
	race, err := p.fetcher.GetRace(ctx, raceID)
	if err != nil {
		return nil, err
	}
	if race == nil {
		return nil, errEmptyResponse
	}
	return race, nil
}

func (p *Poller) render(ctx context.Context, raceID int, standings []models.Standing, final bool) {
	var err error
	if final {
		err = p.sink.RenderResults(ctx, standings)
	} else {
		err = p.sink.RenderProgress(ctx, standings)
	}
	if err != nil {
		log.Debug().
			Err(err).
			Int("race_id", raceID).
			Bool("final", final).
			Msg("leaderboard not rendered")
	}
}
