package orchestrator

import (
	"context"

	"github.com/mcdev12/racer/go/internal/race/selection"
)

// Controller is the UI-facing entry point: selection events update the
// store, start and accelerate drive the orchestrator.
type Controller struct {
	store *selection.Store
	orch  *Orchestrator
}

func NewController(store *selection.Store, orch *Orchestrator) *Controller {
	return &Controller{store: store, orch: orch}
}

func (c *Controller) OnTrackSelected(id int, label string) {
	c.store.SetTrack(id, label)
}

func (c *Controller) OnRacerSelected(id int, label string) {
	c.store.SetRacer(id, label)
}

// OnStartRace starts a race for the current selection. Only user-visible
// failures are returned: a *ValidationError, ErrSessionActive or a
// *CreateRaceError.
func (c *Controller) OnStartRace(ctx context.Context) error {
	return c.orch.StartRace(ctx, c.store.Selection())
}

// OnAccelerate never fails; without a running race it is a no-op
func (c *Controller) OnAccelerate(ctx context.Context) {
	c.orch.Accelerate(ctx)
}

// OnViewClosed tears down the running session
func (c *Controller) OnViewClosed() {
	c.orch.Teardown()
}

func (c *Controller) Orchestrator() *Orchestrator {
	return c.orch
}

func (c *Controller) Store() *selection.Store {
	return c.store
}
