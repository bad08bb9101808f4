package zone

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/bus"
)

// Aggregator owns the single authoritative zone_id -> Zone mapping
// (C2). It subscribes to the bus and applies ZoneDiscovered/
// ZoneUpdated/ZoneRemoved/AdapterStopping events to its zone map and
// NowPlayingChanged/VolumeChanged/SeekPositionChanged as targeted field
// updates; its update loop ends on ShuttingDown, and everything else on
// the bus is ignored. Read operations return
// snapshots copied out from under the lock so callers never observe a
// half-applied write.
type Aggregator struct {
	mu         sync.RWMutex
	zones      map[string]Zone
	nowPlaying map[string]NowPlaying

	bus *bus.Bus
	sub *bus.Subscription

	stop chan struct{}
	done chan struct{}
}

// NewAggregator creates an Aggregator subscribed to b. Call Run in its
// own goroutine to start applying events; call Close to unsubscribe
// and stop the update loop.
func NewAggregator(b *bus.Bus) *Aggregator {
	return &Aggregator{
		zones:      make(map[string]Zone),
		nowPlaying: make(map[string]NowPlaying),
		bus:        b,
		sub:        b.Subscribe(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run applies events from the aggregator's bus subscription until the
// bus is closed, a ShuttingDown event arrives, or Close is called. It is
// intended to run in its own goroutine.
func (a *Aggregator) Run() {
	defer close(a.done)

	for {
		select {
		case ev, ok := <-a.sub.C:
			if !ok {
				return
			}
			a.apply(ev)
			if ev.Kind == bus.KindShuttingDown {
				return
			}
		case <-a.stop:
			return
		}
	}
}

// Close stops the aggregator's update loop and unsubscribes from the
// bus. It blocks until Run has returned.
func (a *Aggregator) Close() {
	close(a.stop)
	if a.sub != nil {
		a.sub.Close()
	}
	<-a.done
}

func (a *Aggregator) apply(ev bus.Event) {
	switch ev.Kind {
	case bus.KindZoneDiscovered, bus.KindZoneUpdated:
		z, ok := ev.Payload.(Zone)
		if !ok {
			log.Warn().Str("kind", string(ev.Kind)).Msg("zone aggregator: event missing zone payload")
			return
		}
		a.mu.Lock()
		a.zones[z.ZoneID] = z
		a.mu.Unlock()

	case bus.KindZoneRemoved:
		a.mu.Lock()
		delete(a.zones, ev.ZoneID)
		delete(a.nowPlaying, ev.ZoneID)
		a.mu.Unlock()

	case bus.KindNowPlayingChanged:
		np, ok := ev.Payload.(NowPlaying)
		if !ok {
			return
		}
		a.mu.Lock()
		a.nowPlaying[ev.ZoneID] = np
		a.mu.Unlock()

	case bus.KindVolumeChanged:
		v, ok := ev.Payload.(Volume)
		if !ok {
			return
		}
		a.mu.Lock()
		if z, ok := a.zones[ev.ZoneID]; ok {
			vv := v
			z.Volume = &vv
			a.zones[ev.ZoneID] = z
		}
		if np, ok := a.nowPlaying[ev.ZoneID]; ok {
			vv := v
			np.Volume = &vv
			a.nowPlaying[ev.ZoneID] = np
		}
		a.mu.Unlock()

	case bus.KindSeekPositionChanged:
		a.mu.Lock()
		if np, ok := a.nowPlaying[ev.ZoneID]; ok {
			np.SeekSeconds = ev.Seek
			a.nowPlaying[ev.ZoneID] = np
		}
		a.mu.Unlock()

	case bus.KindAdapterStopping:
		a.flush(ev.Prefix)
	}
}

// flush atomically drops every zone (and now-playing snapshot) whose
// key starts with "<prefix>:" and publishes ZonesFlushed(prefix).
func (a *Aggregator) flush(prefix string) {
	want := prefix + ":"

	a.mu.Lock()
	for id := range a.zones {
		if strings.HasPrefix(id, want) {
			delete(a.zones, id)
			delete(a.nowPlaying, id)
		}
	}
	a.mu.Unlock()

	a.bus.Publish(bus.ZonesFlushed(prefix))
}

// ListZones returns a snapshot of every known Zone.
func (a *Aggregator) ListZones() []Zone {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Zone, 0, len(a.zones))
	for _, z := range a.zones {
		out = append(out, z)
	}
	return out
}

// GetZone returns a snapshot of the named zone, and whether it exists.
func (a *Aggregator) GetZone(zoneID string) (Zone, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	z, ok := a.zones[zoneID]
	return z, ok
}

// NowPlaying returns a snapshot of the named zone's now-playing state,
// and whether it exists.
func (a *Aggregator) NowPlaying(zoneID string) (NowPlaying, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	np, ok := a.nowPlaying[zoneID]
	return np, ok
}
