// Package roon is a minimal AdapterLogic stub for the Roon-style
// discovery/zone protocol. A full Roon Core integration (SOOD
// discovery, the zone/transport/browse services) is out of scope; this
// package exists so the coordinator has a second, independently
// enable/disable-able adapter to exercise alongside hqp, matching the
// "Start with DSP enabled, Roon disabled" end-to-end scenario.
package roon

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// AdapterLogic is the Roon stub. It never discovers any zone on its
// own (no SOOD/rust-roon-api integration exists here) but fully
// implements the lifecycle contract so the coordinator can start and
// stop it like any other adapter.
type AdapterLogic struct {
	mu    sync.RWMutex
	zones map[string]zone.Zone
}

// NewAdapterLogic creates the Roon stub.
func NewAdapterLogic() *AdapterLogic {
	return &AdapterLogic{zones: make(map[string]zone.Zone)}
}

func (a *AdapterLogic) Prefix() string { return "roon" }

// Run blocks until ctx is cancelled. A real implementation would start
// Roon Core discovery here and publish ZoneDiscovered/ZoneUpdated as
// the Core's zone/transport events arrive.
func (a *AdapterLogic) Run(ctx context.Context, deps adapter.Dependencies) error {
	log.Info().Msg("roon: adapter started (stub — no Roon Core integration)")
	<-ctx.Done()
	return nil
}

func (a *AdapterLogic) Stop(ctx context.Context) error {
	return nil
}

func (a *AdapterLogic) GetZones(ctx context.Context) ([]zone.Zone, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]zone.Zone, 0, len(a.zones))
	for _, z := range a.zones {
		out = append(out, z)
	}
	return out, nil
}

func (a *AdapterLogic) GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	return zone.NowPlaying{}, fmt.Errorf("roon: %q: %w", zoneID, adapter.ErrNotFound)
}

func (a *AdapterLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	return fmt.Errorf("roon: no Roon Core connection: %w", adapter.ErrNotConfigured)
}
