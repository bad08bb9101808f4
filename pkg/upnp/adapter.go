// Package upnp is a minimal, capability-gated AdapterLogic stub for
// UPnP/OpenHome AV renderers. Full SSDP discovery and AVTransport/
// RenderingControl SOAP control are out of scope; this package exists
// to exercise the adapter.ImageProvider capability-gating path with a
// real "unsupported" capability, per spec.md §7's Unsupported example
// ("e.g. get_image on the UPnP adapter").
package upnp

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// AdapterLogic is the UPnP/OpenHome stub. Deliberately does not
// implement adapter.ImageProvider: UPnP devices expose artwork via
// direct HTTP URLs already carried in NowPlaying.ArtworkURL, not
// through a backend-specific image_key the adapter must resolve, so
// get_image for a upnp: zone always falls through to the coordinator's
// ErrUnsupported path.
type AdapterLogic struct {
	mu    sync.RWMutex
	zones map[string]zone.Zone
}

func NewAdapterLogic() *AdapterLogic {
	return &AdapterLogic{zones: make(map[string]zone.Zone)}
}

func (a *AdapterLogic) Prefix() string { return "upnp" }

// Run blocks until ctx is cancelled. A full implementation would run
// SSDP M-SEARCH discovery here and subscribe to each renderer's
// AVTransport/RenderingControl event channels.
func (a *AdapterLogic) Run(ctx context.Context, deps adapter.Dependencies) error {
	log.Info().Msg("upnp: adapter started (stub — no SSDP discovery)")
	<-ctx.Done()
	return nil
}

func (a *AdapterLogic) Stop(ctx context.Context) error { return nil }

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
	return zone.NowPlaying{}, fmt.Errorf("upnp: %q: %w", zoneID, adapter.ErrNotFound)
}

func (a *AdapterLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	return fmt.Errorf("upnp: no renderer discovered: %w", adapter.ErrNotConfigured)
}
