// Package schedule provides the cancellable task handle shared by the
// countdown and the poller, plus clock-driven sleeping.
package schedule

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is the result of a task that was cancelled before it resolved
var ErrCancelled = errors.New("task cancelled")

// Emitter lets a running task publish side effects (renders) that must never
// happen after the task was cancelled.
type Emitter interface {
	// Emit runs fn unless the task is already cancelled or resolved, and
	// reports whether fn ran. fn must not call Cancel on the same handle.
	Emit(fn func()) bool
}

// Handle is a running task that resolves exactly once with a value, or is
// cancelled and never resolves.
type Handle[T any] struct {
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	stopped   bool
	cancelled bool
	done      chan struct{}
	value     T
	err       error
}

// Start runs fn in its own goroutine and returns its handle. The context
// passed to fn is cancelled when the handle is cancelled or fn returns.
func Start[T any](parent context.Context, fn func(ctx context.Context, emit Emitter) (T, error)) *Handle[T] {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer cancel()
		v, err := fn(ctx, h)
		h.resolve(v, err)
	}()

	return h
}

// Emit implements Emitter. Emissions are serialised with Cancel, so once
// Cancel has returned no emission is running and none will start.
func (h *Handle[T]) Emit(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped || h.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

func (h *Handle[T]) resolve(v T, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true
	if errors.Is(err, ErrCancelled) || (err != nil && h.ctx.Err() != nil && errors.Is(err, h.ctx.Err())) {
		// parent context went away; treat like an explicit cancel
		h.cancelled = true
		err = ErrCancelled
	}
	h.value = v
	h.err = err
	close(h.done)
}

// Cancel stops the task. It is synchronous and idempotent; cancelling a
// resolved task is a no-op.
func (h *Handle[T]) Cancel() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.cancelled = true
	h.err = ErrCancelled
	close(h.done)
	h.mu.Unlock()

	h.cancel()
}

// Stopped returns the error a task should return once Emit refused to run:
// the context error when there is one, ErrCancelled otherwise.
func Stopped(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrCancelled
}

// Done is closed once the task resolved or was cancelled
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Cancelled reports whether the task ended by cancellation
func (h *Handle[T]) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Wait blocks until the task ends or ctx is done. A cancelled task yields
// ErrCancelled.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
