package zone

import (
	"time"

	"github.com/muness/unified-hifi-control/pkg/bus"
)

// DiscoveredEvent builds a ZoneDiscovered bus event carrying the full
// zone snapshot at the moment of discovery.
func DiscoveredEvent(z Zone) bus.Event {
	return bus.Event{
		Kind:    bus.KindZoneDiscovered,
		Prefix:  bus.PrefixOf(z.ZoneID),
		ZoneID:  z.ZoneID,
		Payload: z,
		Time:    time.Now(),
	}
}

// UpdatedEvent builds a ZoneUpdated bus event carrying the refreshed
// zone snapshot.
func UpdatedEvent(z Zone) bus.Event {
	return bus.Event{
		Kind:    bus.KindZoneUpdated,
		Prefix:  bus.PrefixOf(z.ZoneID),
		ZoneID:  z.ZoneID,
		Payload: z,
		Time:    time.Now(),
	}
}

// NowPlayingEvent builds a NowPlayingChanged bus event carrying the
// refreshed now-playing snapshot.
func NowPlayingEvent(zoneID string, np NowPlaying) bus.Event {
	return bus.Event{
		Kind:    bus.KindNowPlayingChanged,
		Prefix:  bus.PrefixOf(zoneID),
		ZoneID:  zoneID,
		Payload: np,
		Time:    time.Now(),
	}
}

// VolumeEvent builds a VolumeChanged bus event.
func VolumeEvent(zoneID string, v Volume) bus.Event {
	return bus.Event{
		Kind:    bus.KindVolumeChanged,
		Prefix:  bus.PrefixOf(zoneID),
		ZoneID:  zoneID,
		Payload: v,
		Time:    time.Now(),
	}
}
