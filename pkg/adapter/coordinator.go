package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// shutdownGrace bounds how long Shutdown waits for every handle's
// Stop to acknowledge before giving up and returning anyway.
const shutdownGrace = 15 * time.Second

// Factory builds a fresh AdapterLogic for a prefix. Coordinator calls
// it at most once per Enable, and never while that prefix's previous
// Handle is still running.
type Factory func() AdapterLogic

// Coordinator is C4: it instantiates exactly the enabled adapter
// handles, registers each under its prefix for command routing, and
// owns process-wide shutdown and runtime enable/disable.
type Coordinator struct {
	bus *bus.Bus

	mu        sync.Mutex
	factories map[string]Factory
	handles   map[string]*Handle
	cancels   map[string]context.CancelFunc
	wg        sync.WaitGroup
}

// NewCoordinator creates an empty Coordinator bound to b.
func NewCoordinator(b *bus.Bus) *Coordinator {
	return &Coordinator{
		bus:       b,
		factories: make(map[string]Factory),
		handles:   make(map[string]*Handle),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// RegisterFactory makes prefix available to be started by Start or
// Enable. A disabled adapter's factory is never invoked, so it never
// appears "searching" anywhere in the system.
func (c *Coordinator) RegisterFactory(prefix string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[prefix] = f
}

// Start instantiates and runs exactly the handles named in enabled.
// Prefixes with no registered factory are logged and skipped.
func (c *Coordinator) Start(ctx context.Context, enabled []string) {
	for _, prefix := range enabled {
		if err := c.Enable(ctx, prefix); err != nil {
			log.Error().Err(err).Str("prefix", prefix).Msg("coordinator: failed to enable adapter at start-up")
		}
	}
}

// Enable idempotently starts the handle for prefix: a no-op if it is
// already running.
func (c *Coordinator) Enable(ctx context.Context, prefix string) error {
	c.mu.Lock()
	if _, running := c.handles[prefix]; running {
		c.mu.Unlock()
		return nil
	}
	factory, ok := c.factories[prefix]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("coordinator: no adapter registered for prefix %q: %w", prefix, ErrNotConfigured)
	}

	logic := factory()
	h := NewHandle(logic, c.bus)
	runCtx, cancel := context.WithCancel(ctx)
	c.handles[prefix] = h
	c.cancels[prefix] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		h.Run(runCtx)

		c.mu.Lock()
		if c.handles[prefix] == h {
			delete(c.handles, prefix)
			delete(c.cancels, prefix)
		}
		c.mu.Unlock()
	}()

	return nil
}

// Disable idempotently stops the handle for prefix and waits for its
// Stopped signal. A no-op if prefix is not currently running.
func (c *Coordinator) Disable(prefix string) {
	c.mu.Lock()
	h, ok := c.handles[prefix]
	cancel := c.cancels[prefix]
	c.mu.Unlock()
	if !ok {
		return
	}

	h.RequestStop()
	if cancel != nil {
		cancel()
	}
	<-h.Stopped()

	c.mu.Lock()
	if c.handles[prefix] == h {
		delete(c.handles, prefix)
		delete(c.cancels, prefix)
	}
	c.mu.Unlock()
}

// Shutdown publishes ShuttingDown and waits (bounded by
// shutdownGrace) for every running handle to acknowledge its stop.
func (c *Coordinator) Shutdown() {
	c.bus.Publish(bus.ShuttingDown())

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		log.Warn().Msg("coordinator: shutdown grace period elapsed with handles still running")
	}
}

// handleFor returns the running handle that owns zoneID's prefix.
func (c *Coordinator) handleFor(zoneID string) (*Handle, error) {
	prefix := bus.PrefixOf(zoneID)
	c.mu.Lock()
	h, ok := c.handles[prefix]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("coordinator: no adapter for zone %q: %w", zoneID, ErrNotFound)
	}
	return h, nil
}

// Control routes a control command to the adapter owning zoneID.
func (c *Coordinator) Control(ctx context.Context, zoneID string, action Action, value float64, hasValue bool) error {
	h, err := c.handleFor(zoneID)
	if err != nil {
		return err
	}
	return h.logic.Control(ctx, zoneID, action, value, hasValue)
}

// GetNowPlaying routes a now-playing query to the adapter owning zoneID.
func (c *Coordinator) GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	h, err := c.handleFor(zoneID)
	if err != nil {
		return zone.NowPlaying{}, err
	}
	return h.logic.GetNowPlaying(ctx, zoneID)
}

// GetImage routes an artwork request to the adapter owning zoneID. It
// returns ErrUnsupported if that adapter does not implement ImageProvider.
func (c *Coordinator) GetImage(ctx context.Context, zoneID, imageKey string) ([]byte, string, error) {
	h, err := c.handleFor(zoneID)
	if err != nil {
		return nil, "", err
	}
	ip, ok := h.logic.(ImageProvider)
	if !ok {
		return nil, "", fmt.Errorf("coordinator: adapter %q: %w", h.Prefix(), ErrUnsupported)
	}
	return ip.GetImage(ctx, imageKey)
}

// LogicFor returns the running AdapterLogic registered under prefix,
// for callers that need to reach an adapter-specific capability (such
// as the DSP client's pipeline controls) not part of the common
// AdapterLogic interface. Callers type-assert the result themselves.
func (c *Coordinator) LogicFor(prefix string) (AdapterLogic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[prefix]
	if !ok {
		return nil, false
	}
	return h.logic, true
}

// Prefixes returns the prefixes currently running, for diagnostics.
func (c *Coordinator) Prefixes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.handles))
	for p := range c.handles {
		out = append(out, p)
	}
	return out
}
