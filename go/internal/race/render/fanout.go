package render

import (
	"context"
	"errors"

	"github.com/mcdev12/racer/go/internal/models"
)

// Sink is the full set of render calls made during a race
type Sink interface {
	RenderRaceStart(ctx context.Context, trackName string) error
	RenderCountdown(ctx context.Context, remaining int) error
	RenderProgress(ctx context.Context, standings []models.Standing) error
	RenderResults(ctx context.Context, standings []models.Standing) error
	RenderError(ctx context.Context, err error) error
}

// Fanout forwards every render to all of its sinks. It fails only when every
// sink failed, so one closed view does not hide the race from the others.
type Fanout []Sink

func (f Fanout) each(call func(Sink) error) error {
	var errs []error
	for _, s := range f {
		if err := call(s); err != nil {
			errs = append(errs, err)
		}
	}
	if len(f) > 0 && len(errs) == len(f) {
		return errors.Join(errs...)
	}
	return nil
}

func (f Fanout) RenderRaceStart(ctx context.Context, trackName string) error {
	return f.each(func(s Sink) error { return s.RenderRaceStart(ctx, trackName) })
}

func (f Fanout) RenderCountdown(ctx context.Context, remaining int) error {
	return f.each(func(s Sink) error { return s.RenderCountdown(ctx, remaining) })
}

func (f Fanout) RenderProgress(ctx context.Context, standings []models.Standing) error {
	return f.each(func(s Sink) error { return s.RenderProgress(ctx, standings) })
}

func (f Fanout) RenderResults(ctx context.Context, standings []models.Standing) error {
	return f.each(func(s Sink) error { return s.RenderResults(ctx, standings) })
}

func (f Fanout) RenderError(ctx context.Context, err error) error {
	return f.each(func(s Sink) error { return s.RenderError(ctx, err) })
}
