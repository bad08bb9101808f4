package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/pkg/bus"
)

func TestCoordinatorStartsOnlyEnabledAdapters(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)

	roon := &fakeLogic{prefix: "roon"}
	lms := &fakeLogic{prefix: "lms"}
	c.RegisterFactory("roon", func() AdapterLogic { return roon })
	c.RegisterFactory("lms", func() AdapterLogic { return lms })

	c.Start(context.Background(), []string{"roon"})
	time.Sleep(20 * time.Millisecond)

	prefixes := c.Prefixes()
	if len(prefixes) != 1 || prefixes[0] != "roon" {
		t.Fatalf("got prefixes %v, want [roon]", prefixes)
	}
}

func TestCoordinatorEnableIsIdempotent(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)
	logic := &fakeLogic{prefix: "roon"}
	c.RegisterFactory("roon", func() AdapterLogic { return logic })

	if err := c.Enable(context.Background(), "roon"); err != nil {
		t.Fatalf("first Enable: %v", err)
	}
	if err := c.Enable(context.Background(), "roon"); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if got := logic.runCountSnapshot(); got != 1 {
		t.Fatalf("got %d Run invocations, want 1 (idempotent Enable must not double-start)", got)
	}
}

func TestCoordinatorEnableUnknownPrefixReturnsNotConfigured(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)

	err := c.Enable(context.Background(), "ghost")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}

func TestCoordinatorDisableStopsHandle(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)
	logic := &fakeLogic{prefix: "roon"}
	c.RegisterFactory("roon", func() AdapterLogic { return logic })

	if err := c.Enable(context.Background(), "roon"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	c.Disable("roon")

	if got := c.Prefixes(); len(got) != 0 {
		t.Fatalf("got prefixes %v after Disable, want none", got)
	}

	logic.mu.Lock()
	stopped := logic.stopped
	logic.mu.Unlock()
	if !stopped {
		t.Fatal("logic.Stop was never called by Disable")
	}
}

func TestCoordinatorControlRoutesToOwningAdapter(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)
	logic := &fakeLogic{prefix: "roon"}
	c.RegisterFactory("roon", func() AdapterLogic { return logic })

	if err := c.Enable(context.Background(), "roon"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := c.Control(context.Background(), "roon:zone-1", ActionPlay, 0, false); err != nil {
		t.Fatalf("Control: %v", err)
	}
}

func TestCoordinatorControlUnknownZoneReturnsNotFound(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)

	err := c.Control(context.Background(), "ghost:zone-1", ActionPlay, 0, false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCoordinatorShutdownPublishesShuttingDownAndWaits(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)
	logic := &fakeLogic{prefix: "roon"}
	c.RegisterFactory("roon", func() AdapterLogic { return logic })

	if err := c.Enable(context.Background(), "roon"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	logic.mu.Lock()
	stopped := logic.stopped
	logic.mu.Unlock()
	if !stopped {
		t.Fatal("logic.Stop was never called during Shutdown")
	}
}
