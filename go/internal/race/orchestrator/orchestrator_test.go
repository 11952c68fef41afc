package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racer/go/clients"
	"github.com/mcdev12/racer/go/internal/models"
	"github.com/mcdev12/racer/go/internal/race/events"
	"github.com/mcdev12/racer/go/internal/race/poller"
	"github.com/mcdev12/racer/go/internal/race/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu         sync.Mutex
	createErr  error
	createGate chan struct{}
	startErr   error
	accelErr   error
	replies    []*models.RaceSession
	nextID     int

	created     int
	started     []int
	accelerated []int
	fetched     int
}

func newFakeService(replies ...*models.RaceSession) *fakeService {
	return &fakeService{replies: replies, nextID: 7}
}

func (f *fakeService) CreateRace(ctx context.Context, trackID, racerID int) (*models.RaceSession, error) {
	f.mu.Lock()
	gate := f.createGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.nextID
	f.nextID++
	return &models.RaceSession{ID: id, TrackID: trackID, Status: models.RaceStatusPending}, nil
}

func (f *fakeService) GetRace(ctx context.Context, raceID int) (*models.RaceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.fetched
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	f.fetched++
	r := *f.replies[idx]
	r.ID = raceID
	return &r, nil
}

func (f *fakeService) StartRace(ctx context.Context, raceID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, raceID)
	return f.startErr
}

func (f *fakeService) Accelerate(ctx context.Context, raceID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accelerated = append(f.accelerated, raceID)
	return f.accelErr
}

func (f *fakeService) counts() (created, started, accelerated, fetched int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, len(f.started), len(f.accelerated), f.fetched
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRenderer) add(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
	return nil
}

func (r *recordingRenderer) RenderRaceStart(ctx context.Context, trackName string) error {
	return r.add("start:" + trackName)
}

func (r *recordingRenderer) RenderCountdown(ctx context.Context, remaining int) error {
	return r.add(fmt.Sprintf("countdown:%d", remaining))
}

func (r *recordingRenderer) RenderProgress(ctx context.Context, standings []models.Standing) error {
	return r.add("progress:" + board(standings))
}

func (r *recordingRenderer) RenderResults(ctx context.Context, standings []models.Standing) error {
	return r.add("results:" + board(standings))
}

func (r *recordingRenderer) RenderError(ctx context.Context, err error) error {
	return r.add("error")
}

func (r *recordingRenderer) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func board(standings []models.Standing) string {
	parts := make([]string, len(standings))
	for i, s := range standings {
		parts[i] = fmt.Sprint(s.Position.RacerID)
		if s.Self {
			parts[i] += "*"
		}
	}
	return strings.Join(parts, ",")
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []events.EventType
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.RaceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, ev.Type)
	return nil
}

func (p *recordingPublisher) all() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.EventType(nil), p.types...)
}

type harness struct {
	ctx       context.Context
	clock     *clockwork.FakeClock
	service   *fakeService
	renderer  *recordingRenderer
	publisher *recordingPublisher
	orch      *Orchestrator
}

func newHarness(t *testing.T, replies ...*models.RaceSession) *harness {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	h := &harness{
		ctx:       ctx,
		clock:     clockwork.NewFakeClock(),
		service:   newFakeService(replies...),
		renderer:  &recordingRenderer{},
		publisher: &recordingPublisher{},
	}
	h.orch = NewOrchestrator(h.service, h.renderer, WithClock(h.clock), WithPublisher(h.publisher))
	t.Cleanup(h.orch.Teardown)
	return h
}

// step waits for the session to park on its next timer and fires it
func (h *harness) step(t *testing.T, d time.Duration) {
	t.Helper()
	require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))
	h.clock.Advance(d)
}

func (h *harness) runCountdown(t *testing.T) {
	t.Helper()
	for i := 0; i < 4; i++ {
		h.step(t, time.Second)
	}
	// parked on the first poll
	require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))
}

func race(status models.RaceStatus, positions ...models.Position) *models.RaceSession {
	return &models.RaceSession{Status: status, Positions: positions}
}

func pos(id, segment int) models.Position {
	return models.Position{RacerID: id, DriverName: fmt.Sprintf("Racer %d", id), Segment: segment}
}

var fullSelection = models.Selection{TrackID: 1, TrackName: "Track 1", RacerID: 1, RacerName: "Racer 1"}

func TestStartRaceRejectsIncompleteSelection(t *testing.T) {
	tests := []struct {
		name    string
		sel     models.Selection
		missing []string
	}{
		{"nothing selected", models.Selection{}, []string{"track", "racer"}},
		{"no racer", models.Selection{TrackID: 1}, []string{"racer"}},
		{"no track", models.Selection{RacerID: 2}, []string{"track"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, race(models.RaceStatusFinished))

			err := h.orch.StartRace(h.ctx, tt.sel)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.missing, verr.Missing)
			assert.Equal(t, StateIdle, h.orch.State())

			created, _, _, _ := h.service.counts()
			assert.Zero(t, created)
			assert.Empty(t, h.renderer.all())

			_, err = h.orch.Wait(h.ctx)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestRaceLifecycle(t *testing.T) {
	h := newHarness(t,
		race(models.RaceStatusInProgress, pos(1, 5), pos(2, 9), pos(3, 9)),
		race(models.RaceStatusFinished, pos(1, 30), pos(2, 20), pos(3, 10)),
	)

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	assert.Equal(t, StateCountdown, h.orch.State())
	assert.Equal(t, 7, h.orch.SessionID())

	h.runCountdown(t)
	assert.Equal(t, StateRacing, h.orch.State())

	h.orch.Accelerate(h.ctx)

	h.step(t, poller.DefaultInterval)
	h.step(t, poller.DefaultInterval)

	result, err := h.orch.Wait(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RaceStatusFinished, result.Status)
	assert.Equal(t, 7, result.ID)
	assert.Equal(t, 1, result.TrackID)
	assert.Equal(t, StateFinished, h.orch.State())
	assert.Zero(t, h.orch.SessionID())

	assert.Equal(t, []string{
		"start:Track 1",
		"countdown:3", "countdown:2", "countdown:1", "countdown:0",
		"progress:2,3,1*",
		"results:1*,2,3",
	}, h.renderer.all())

	created, started, accelerated, fetched := h.service.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, accelerated)
	assert.Equal(t, 2, fetched)

	want := []events.EventType{
		events.EventTypeRaceCreated,
		events.EventTypeCountdownFinished,
		events.EventTypeRaceStarted,
		events.EventTypeRaceFinished,
	}
	// the finish event is published after waiters are released
	assert.Eventually(t, func() bool { return assert.ObjectsAreEqual(want, h.publisher.all()) }, time.Second, time.Millisecond)
}

func TestCreateRaceFailureMovesToFailed(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(1, 1)))
	h.service.createErr = &clients.ServiceError{Op: "POST /api/races", StatusCode: 500, Err: errors.New("boom")}

	err := h.orch.StartRace(h.ctx, fullSelection)

	var cerr *CreateRaceError
	require.ErrorAs(t, err, &cerr)
	var serr *clients.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 500, serr.StatusCode)

	assert.Equal(t, StateFailed, h.orch.State())
	assert.Equal(t, []string{"start:Track 1", "error"}, h.renderer.all())
	assert.Equal(t, []events.EventType{events.EventTypeRaceFailed}, h.publisher.all())

	_, werr := h.orch.Wait(h.ctx)
	assert.ErrorAs(t, werr, &cerr)

	// no automatic retry, but the user may try again
	created, _, _, _ := h.service.counts()
	assert.Equal(t, 1, created)

	h.service.mu.Lock()
	h.service.createErr = nil
	h.service.mu.Unlock()
	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	assert.Equal(t, StateCountdown, h.orch.State())
}

func TestStartRaceRejectedWhileActive(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(1, 1)))

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	assert.ErrorIs(t, h.orch.StartRace(h.ctx, fullSelection), ErrSessionActive)

	created, _, _, _ := h.service.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 7, h.orch.SessionID())
}

func TestStartRaceFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(1, 1)))
	h.service.startErr = errors.New("start refused")

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	h.runCountdown(t)
	h.step(t, poller.DefaultInterval)

	_, err := h.orch.Wait(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, StateFinished, h.orch.State())
	assert.NotContains(t, h.publisher.all(), events.EventTypeRaceStarted)
}

func TestAccelerateWithoutSessionIsNoop(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished))

	assert.NotPanics(t, func() { h.orch.Accelerate(h.ctx) })

	_, _, accelerated, _ := h.service.counts()
	assert.Zero(t, accelerated)
}

func TestAccelerateIgnoredDuringCountdown(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished))

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	h.orch.Accelerate(h.ctx)

	_, _, accelerated, _ := h.service.counts()
	assert.Zero(t, accelerated)
}

func TestAccelerateErrorIsSwallowed(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusInProgress, pos(1, 1)))
	h.service.accelErr = errors.New("network down")

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	h.runCountdown(t)

	assert.NotPanics(t, func() { h.orch.Accelerate(h.ctx) })
	assert.NotPanics(t, func() { h.orch.Accelerate(h.ctx) })

	_, _, accelerated, _ := h.service.counts()
	assert.Equal(t, 2, accelerated)
	assert.Equal(t, StateRacing, h.orch.State())
}

func TestTeardownDuringCountdown(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(1, 1)))

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	h.step(t, time.Second) // countdown:3
	require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))

	h.orch.Teardown()
	rendered := h.renderer.all()
	h.clock.Advance(time.Minute)

	assert.Equal(t, []string{"start:Track 1", "countdown:3"}, rendered)
	assert.Equal(t, rendered, h.renderer.all())
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Zero(t, h.orch.SessionID())

	_, err := h.orch.Wait(h.ctx)
	assert.ErrorIs(t, err, ErrTornDown)

	_, started, _, fetched := h.service.counts()
	assert.Zero(t, started)
	assert.Zero(t, fetched)
	assert.Contains(t, h.publisher.all(), events.EventTypeRaceCancelled)
}

func TestTeardownWhileRacing(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusInProgress, pos(1, 1)))

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	h.runCountdown(t)
	h.step(t, poller.DefaultInterval)
	require.NoError(t, h.clock.BlockUntilContext(h.ctx, 1))

	h.orch.Teardown()
	rendered := h.renderer.all()
	h.clock.Advance(time.Minute)

	_, _, _, fetched := h.service.counts()
	assert.Equal(t, 1, fetched)
	assert.Equal(t, rendered, h.renderer.all())
	assert.Equal(t, "progress:1*", rendered[len(rendered)-1])

	h.orch.Accelerate(h.ctx)
	_, _, accelerated, _ := h.service.counts()
	assert.Zero(t, accelerated)
}

func TestTeardownWhileCreating(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(1, 1)))
	gate := make(chan struct{})
	h.service.createGate = gate

	errCh := make(chan error, 1)
	go func() { errCh <- h.orch.StartRace(h.ctx, fullSelection) }()

	require.Eventually(t, func() bool { return h.orch.State() == StateCreating }, time.Second, time.Millisecond)
	h.orch.Teardown()
	close(gate)

	assert.ErrorIs(t, <-errCh, ErrTornDown)
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Zero(t, h.orch.SessionID())
	assert.NotContains(t, h.renderer.all(), "countdown:3")
}

func TestTeardownWhenIdleIsNoop(t *testing.T) {
	h := newHarness(t)
	h.orch.Teardown()
	h.orch.Teardown()
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Empty(t, h.publisher.all())
}

func TestSecondRaceAfterFinish(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(1, 1)))

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	h.runCountdown(t)
	h.step(t, poller.DefaultInterval)
	first, err := h.orch.Wait(h.ctx)
	require.NoError(t, err)

	require.NoError(t, h.orch.StartRace(h.ctx, fullSelection))
	assert.Equal(t, 8, h.orch.SessionID())
	h.runCountdown(t)
	h.step(t, poller.DefaultInterval)
	second, err := h.orch.Wait(h.ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, first.ID)
	assert.Equal(t, 8, second.ID)
}

func TestControllerEntryPoints(t *testing.T) {
	h := newHarness(t, race(models.RaceStatusFinished, pos(3, 1)))
	c := NewController(selection.NewStore(), h.orch)

	var verr *ValidationError
	require.ErrorAs(t, c.OnStartRace(h.ctx), &verr)

	c.OnTrackSelected(1, "Track 1")
	c.OnRacerSelected(2, "Racer 2")
	c.OnRacerSelected(3, "Racer 3")
	c.OnAccelerate(h.ctx)

	require.NoError(t, c.OnStartRace(h.ctx))
	assert.Equal(t, 3, c.Store().Selection().RacerID)

	c.OnViewClosed()
	assert.Equal(t, StateIdle, c.Orchestrator().State())

	_, _, accelerated, _ := h.service.counts()
	assert.Zero(t, accelerated)
}
