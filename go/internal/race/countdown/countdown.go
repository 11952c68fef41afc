// Package countdown runs the pre-race countdown.
package countdown

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racer/go/internal/race/schedule"
	"github.com/rs/zerolog/log"
)

const (
	DefaultFrom        = 3
	DefaultSettleDelay = time.Second
	DefaultInterval    = time.Second
)

// Sink receives each countdown value. An error means the value could not be
// presented; the countdown keeps going regardless.
type Sink interface {
	RenderCountdown(ctx context.Context, remaining int) error
}

// Timer produces the sequence from, from-1, ..., 0 at a fixed interval after
// an initial settle delay.
type Timer struct {
	clock       clockwork.Clock
	sink        Sink
	from        int
	settleDelay time.Duration
	interval    time.Duration
}

type Option func(*Timer)

// WithClock swaps the clock; tests use clockwork.NewFakeClock()
func WithClock(clock clockwork.Clock) Option {
	return func(t *Timer) { t.clock = clock }
}

func WithFrom(from int) Option {
	return func(t *Timer) {
		if from < 0 {
			from = 0
		}
		t.from = from
	}
}

func WithSettleDelay(d time.Duration) Option {
	return func(t *Timer) { t.settleDelay = d }
}

func WithInterval(d time.Duration) Option {
	return func(t *Timer) { t.interval = d }
}

// New creates a countdown that renders into sink
func New(sink Sink, opts ...Option) *Timer {
	t := &Timer{
		clock:       clockwork.NewRealClock(),
		sink:        sink,
		from:        DefaultFrom,
		settleDelay: DefaultSettleDelay,
		interval:    DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins the countdown. The handle resolves with 0 once the last tick
// was emitted; cancelling it stops the countdown with no further renders.
func (t *Timer) Start(ctx context.Context) *schedule.Handle[int] {
	return schedule.Start(ctx, t.run)
}

func (t *Timer) run(ctx context.Context, emit schedule.Emitter) (int, error) {
	if err := schedule.Sleep(ctx, t.clock, t.settleDelay); err != nil {
		return 0, err
	}

	remaining := t.from
	for {
		if !t.tick(ctx, emit, remaining) {
			return 0, schedule.Stopped(ctx)
		}
		if remaining == 0 {
			return 0, nil
		}
		if err := schedule.Sleep(ctx, t.clock, t.interval); err != nil {
			return 0, err
		}
		remaining--
	}
}

// tick renders one value. It reports false only when the countdown was
// cancelled; a failing sink just skips the render.
func (t *Timer) tick(ctx context.Context, emit schedule.Emitter, remaining int) bool {
	return emit.Emit(func() {
		if err := t.sink.RenderCountdown(ctx, remaining); err != nil {
			log.Debug().
				Err(err).
				Int("remaining", remaining).
				Msg("countdown tick not rendered")
		}
	})
}
