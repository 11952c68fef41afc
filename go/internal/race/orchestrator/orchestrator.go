// Package orchestrator sequences a race session: selection check, race
// creation, countdown, polling and the final result.
//
//	idle -> creating -> countdown -> racing -> finished
//	           \-> failed
//
// Teardown from any state cancels the running countdown or poller and
// returns the orchestrator to idle. At most one session is active at a time.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racer/go/internal/models"
	"github.com/mcdev12/racer/go/internal/race/countdown"
	"github.com/mcdev12/racer/go/internal/race/events"
	"github.com/mcdev12/racer/go/internal/race/poller"
	"github.com/mcdev12/racer/go/internal/race/schedule"
	"github.com/rs/zerolog/log"
)

// RaceService defines what the orchestrator needs from the remote race API
type RaceService interface {
	CreateRace(ctx context.Context, trackID, racerID int) (*models.RaceSession, error)
	GetRace(ctx context.Context, raceID int) (*models.RaceSession, error)
	StartRace(ctx context.Context, raceID int) error
	Accelerate(ctx context.Context, raceID int) error
}

// Renderer is the presentation sink for a session
type Renderer interface {
	RenderRaceStart(ctx context.Context, trackName string) error
	RenderCountdown(ctx context.Context, remaining int) error
	RenderProgress(ctx context.Context, standings []models.Standing) error
	RenderResults(ctx context.Context, standings []models.Standing) error
	RenderError(ctx context.Context, err error) error
}

type Orchestrator struct {
	service      RaceService
	renderer     Renderer
	publisher    events.Publisher
	clock        clockwork.Clock
	baseCtx      context.Context
	countdownOps []countdown.Option
	pollInterval time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	session    *models.RaceSession
	selection  models.Selection
	countdown  *schedule.Handle[int]
	poller     *schedule.Handle[*models.RaceSession]
	cancelRun  context.CancelFunc
	outcome    *outcome
}

// outcome is how one session ended
type outcome struct {
	done   chan struct{}
	result *models.RaceSession
	err    error
}

func newOutcome() *outcome {
	return &outcome{done: make(chan struct{})}
}

// finish must be called with o.mu held
func (oc *outcome) finish(result *models.RaceSession, err error) {
	oc.result = result
	oc.err = err
	close(oc.done)
}

type Option func(*Orchestrator)

// WithClock drives the countdown and the poller from clock
func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithCountdown passes options through to every countdown timer
func WithCountdown(opts ...countdown.Option) Option {
	return func(o *Orchestrator) { o.countdownOps = append(o.countdownOps, opts...) }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// WithBaseContext sets the parent context of background race work. Request
// contexts are only used for race creation.
func WithBaseContext(ctx context.Context) Option {
	return func(o *Orchestrator) { o.baseCtx = ctx }
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(service RaceService, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		service:      service,
		renderer:     renderer,
		publisher:    events.NopPublisher{},
		clock:        clockwork.NewRealClock(),
		baseCtx:      context.Background(),
		pollInterval: poller.DefaultInterval,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SessionID returns the active race ID, or 0 when no session is active
func (o *Orchestrator) SessionID() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return 0
	}
	return o.session.ID
}

// StartRace validates sel, creates the race and, once the service has
// acknowledged it, runs countdown and polling in the background. It returns
// a *ValidationError, ErrSessionActive or a *CreateRaceError when the race
// cannot start.
func (o *Orchestrator) StartRace(ctx context.Context, sel models.Selection) error {
	if err := validate(sel); err != nil {
		log.Info().Err(err).Msg("race start rejected")
		return err
	}

	o.mu.Lock()
	if o.state.Active() {
		o.mu.Unlock()
		return ErrSessionActive
	}
	o.generation++
	gen := o.generation
	o.state = StateCreating
	o.selection = sel
	o.session = nil
	o.outcome = newOutcome()
	o.mu.Unlock()

	log.Info().
		Int("track_id", sel.TrackID).
		Int("racer_id", sel.RacerID).
		Msg("creating race")

	o.renderCurrent(gen, func() error { return o.renderer.RenderRaceStart(ctx, sel.TrackName) })

	session, err := o.service.CreateRace(ctx, sel.TrackID, sel.RacerID)
	if err != nil {
		return o.failCreate(ctx, gen, sel, err)
	}

	runCtx, cancel := context.WithCancel(o.baseCtx)

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		cancel()
		log.Info().Int("race_id", session.ID).Msg("race created after teardown; dropping it")
		return ErrTornDown
	}
	session.Status = models.RaceStatusCountdown
	o.session = session
	o.state = StateCountdown
	o.cancelRun = cancel
	cd := countdown.New(o.renderer, append([]countdown.Option{countdown.WithClock(o.clock)}, o.countdownOps...)...)
	o.countdown = cd.Start(runCtx)
	handle := o.countdown
	o.mu.Unlock()

	log.Info().
		Int("race_id", session.ID).
		Int("track_id", sel.TrackID).
		Msg("race created; counting down")
	o.publish(events.EventTypeRaceCreated, session.ID, sel, nil, nil)

	go o.run(runCtx, gen, session.ID, sel, handle)

	return nil
}

func validate(sel models.Selection) error {
	var missing []string
	if !sel.HasTrack() {
		missing = append(missing, "track")
	}
	if !sel.HasRacer() {
		missing = append(missing, "racer")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func (o *Orchestrator) failCreate(ctx context.Context, gen uint64, sel models.Selection, cause error) error {
	err := &CreateRaceError{Err: cause}

	log.Error().
		Err(cause).
		Int("track_id", sel.TrackID).
		Int("racer_id", sel.RacerID).
		Msg("failed to create race")

	o.mu.Lock()
	if o.generation == gen {
		o.state = StateFailed
		o.outcome.finish(nil, err)
		if rerr := o.renderer.RenderError(ctx, err); rerr != nil {
			log.Debug().Err(rerr).Msg("race failure not rendered")
		}
	}
	o.mu.Unlock()

	o.publish(events.EventTypeRaceFailed, 0, sel, nil, err)
	return err
}

// run drives a created race from countdown to finish. Every transition checks
// the generation so a torn down session never touches newer state.
func (o *Orchestrator) run(ctx context.Context, gen uint64, raceID int, sel models.Selection, cd *schedule.Handle[int]) {
	if _, err := cd.Wait(ctx); err != nil {
		log.Debug().Err(err).Int("race_id", raceID).Msg("countdown ended without resolving")
		return
	}

	if !o.transition(gen, StateRacing, nil) {
		return
	}
	o.publish(events.EventTypeCountdownFinished, raceID, sel, nil, nil)

	// best effort: the poller notices soon enough if the race never starts
	if err := o.service.StartRace(ctx, raceID); err != nil {
		log.Warn().Err(err).Int("race_id", raceID).Msg("start race request failed")
	} else {
		o.publish(events.EventTypeRaceStarted, raceID, sel, nil, nil)
	}

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return
	}
	p := poller.New(o.service, o.renderer, poller.WithClock(o.clock), poller.WithInterval(o.pollInterval))
	o.poller = p.Start(ctx, raceID, sel.RacerID)
	handle := o.poller
	o.mu.Unlock()

	race, err := handle.Wait(ctx)
	if err != nil {
		log.Debug().Err(err).Int("race_id", raceID).Msg("polling ended without a result")
		return
	}

	if !o.transition(gen, StateFinished, race) {
		return
	}

	log.Info().
		Int("race_id", raceID).
		Int("racers", len(race.Positions)).
		Msg("race session finished")
	o.publish(events.EventTypeRaceFinished, raceID, sel, poller.Rank(race.Positions, sel.RacerID), nil)
}

// transition moves the current session to next. A finished race releases
// the session. It reports false when the session has been torn down.
func (o *Orchestrator) transition(gen uint64, next State, result *models.RaceSession) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.generation != gen {
		return false
	}
	o.state = next
	if o.session != nil {
		switch next {
		case StateRacing:
			o.session.Status = models.RaceStatusInProgress
		case StateFinished:
			o.session.Status = models.RaceStatusFinished
		}
	}
	if next == StateFinished {
		if result != nil && result.TrackID == 0 && o.session != nil {
			result.TrackID = o.session.TrackID
		}
		o.outcome.finish(result, nil)
		o.session = nil
		o.countdown = nil
		o.poller = nil
		if o.cancelRun != nil {
			o.cancelRun()
			o.cancelRun = nil
		}
	}
	return true
}

// renderCurrent renders only while gen is still the current session
func (o *Orchestrator) renderCurrent(gen uint64, render func() error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.generation != gen {
		return
	}
	if err := render(); err != nil {
		log.Debug().Err(err).Msg("render skipped")
	}
}

// Accelerate forwards one accelerate input while racing. Without a running
// race it does nothing; service failures are only logged.
func (o *Orchestrator) Accelerate(ctx context.Context) {
	o.mu.Lock()
	if o.state != StateRacing || o.session == nil {
		o.mu.Unlock()
		log.Debug().Msg("accelerate ignored; no race running")
		return
	}
	raceID := o.session.ID
	o.mu.Unlock()

	if err := o.service.Accelerate(ctx, raceID); err != nil {
		log.Warn().Err(err).Int("race_id", raceID).Msg("accelerate request failed")
	}
}

// Teardown cancels the active session, if any. When it returns no timer or
// poller of that session is running and no further render will happen.
func (o *Orchestrator) Teardown() {
	o.mu.Lock()
	if !o.state.Active() {
		o.mu.Unlock()
		return
	}
	o.generation++
	raceID := 0
	if o.session != nil {
		raceID = o.session.ID
	}
	sel := o.selection
	cd, pl, cancel := o.countdown, o.poller, o.cancelRun
	o.state = StateIdle
	o.session = nil
	o.countdown = nil
	o.poller = nil
	o.cancelRun = nil
	o.outcome.finish(nil, ErrTornDown)
	o.mu.Unlock()

	if cd != nil {
		cd.Cancel()
	}
	if pl != nil {
		pl.Cancel()
	}
	if cancel != nil {
		cancel()
	}

	log.Info().Int("race_id", raceID).Msg("race session torn down")
	o.publish(events.EventTypeRaceCancelled, raceID, sel, nil, nil)
}

// Wait blocks until the latest session finishes, fails or is torn down
func (o *Orchestrator) Wait(ctx context.Context) (*models.RaceSession, error) {
	o.mu.Lock()
	oc := o.outcome
	o.mu.Unlock()

	if oc == nil {
		return nil, ErrNoSession
	}

	select {
	case <-oc.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return oc.result, oc.err
}

func (o *Orchestrator) publish(eventType events.EventType, raceID int, sel models.Selection, standings []models.Standing, cause error) {
	ev := events.NewRaceEvent(eventType, raceID, o.clock.Now())
	ev.TrackID = sel.TrackID
	ev.RacerID = sel.RacerID
	ev.Standings = standings
	if cause != nil {
		ev.Error = cause.Error()
	}

	// detached from the session so a teardown does not drop its own event
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.publisher.Publish(ctx, ev); err != nil {
		log.Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Int("race_id", raceID).
			Msg("failed to publish race event")
	}
}
