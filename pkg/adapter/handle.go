package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/bus"
)

const (
	restartBackoff    = time.Second
	maxRestarts       = 5
	healthyResetAfter = 5 * time.Minute
	stopGrace         = 10 * time.Second
)

// Handle is the generic lifecycle wrapper around an AdapterLogic
// (C3). It races the logic's run loop against a bus watch for
// ShuttingDown and a direct stop request — whichever fires first wins
// — and always publishes AdapterStopping before calling Stop and
// AdapterStopped after Stop acknowledges.
type Handle struct {
	logic AdapterLogic
	bus   *bus.Bus

	mu      sync.Mutex
	stopReq chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewHandle wraps logic in a Handle bound to b.
func NewHandle(logic AdapterLogic, b *bus.Bus) *Handle {
	return &Handle{
		logic:   logic,
		bus:     b,
		stopReq: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Prefix returns the wrapped adapter's routing prefix.
func (h *Handle) Prefix() string { return h.logic.Prefix() }

// Run blocks until the handle stops, via ShuttingDown on the bus, a
// direct call to RequestStop, ctx cancellation, or the logic
// exhausting its restart budget. It always ends by publishing
// AdapterStopping, calling Stop, then publishing AdapterStopped.
func (h *Handle) Run(ctx context.Context) {
	defer close(h.stopped)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := h.bus.Subscribe()
	defer sub.Close()

	shutdownWatch := make(chan struct{})
	go func() {
		for ev := range sub.C {
			if ev.Kind == bus.KindShuttingDown {
				close(shutdownWatch)
				return
			}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		h.supervise(runCtx)
	}()

	select {
	case <-runDone:
	case <-shutdownWatch:
	case <-h.stopReq:
	case <-ctx.Done():
	}

	cancel()
	<-runDone

	h.bus.Publish(bus.AdapterStopping(h.Prefix()))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopGrace)
	if err := h.logic.Stop(stopCtx); err != nil {
		log.Error().Err(err).Str("prefix", h.Prefix()).Msg("adapter: stop returned an error")
	}
	stopCancel()

	h.bus.Publish(bus.AdapterStopped(h.Prefix()))
}

// RequestStop asks the handle to stop cooperatively. It is safe to
// call multiple times and from multiple goroutines.
func (h *Handle) RequestStop() {
	h.once.Do(func() { close(h.stopReq) })
}

// Stopped returns a channel closed once Run has fully returned
// (after AdapterStopped has been published).
func (h *Handle) Stopped() <-chan struct{} { return h.stopped }

// supervise runs logic.Run, restarting it per the crash/restart
// policy: up to maxRestarts failures (an error return or a panic) with
// a fixed 1-second back-off between attempts, with the counter reset
// after healthyResetAfter of sustained healthy operation. It returns
// once ctx is done, or once the restart budget is exhausted (a Fatal
// condition — the handle stays stopped).
func (h *Handle) supervise(ctx context.Context) {
	restarts := 0
	deps := Dependencies{Bus: h.bus, Prefix: h.logic.Prefix()}

	for {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		err := h.runOnce(ctx, deps)

		if ctx.Err() != nil {
			return
		}

		if err == nil {
			// Run returned cleanly without ctx being cancelled: treat as
			// an unexpected exit, subject to the same restart policy.
			log.Warn().Str("prefix", h.logic.Prefix()).Msg("adapter: run loop exited unexpectedly")
		} else {
			log.Error().Err(err).Str("prefix", h.logic.Prefix()).Msg("adapter: run loop crashed")
		}

		if time.Since(start) >= healthyResetAfter {
			restarts = 0
		}
		restarts++

		if restarts >= maxRestarts {
			log.Error().Str("prefix", h.logic.Prefix()).Int("restarts", restarts).
				Msg("adapter: exhausted restart budget, giving up")
			return
		}

		select {
		case <-time.After(restartBackoff):
		case <-ctx.Done():
			return
		}
	}
}

// runOnce invokes logic.Run, converting a panic into an error so a
// single crashing adapter is counted against the restart budget
// instead of taking down the process.
func (h *Handle) runOnce(ctx context.Context, deps Dependencies) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter: run panicked: %v", r)
		}
	}()
	return h.logic.Run(ctx, deps)
}
