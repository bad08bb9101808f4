// Package bus implements the process-wide typed event broadcaster that
// decouples adapters from the zone aggregator and the HTTP/SSE layer.
//
// bus deliberately has no dependency on pkg/zone: the Zone/NowPlaying/
// Volume snapshots that ride along with ZoneDiscovered, ZoneUpdated,
// NowPlayingChanged and VolumeChanged travel in the generic Payload
// field, and their typed constructors live in pkg/zone instead of
// here, so pkg/zone can depend on pkg/bus without a cycle.
package bus

import "time"

// Kind identifies the variant of an Event.
type Kind string

const (
	KindZoneDiscovered       Kind = "ZoneDiscovered"
	KindZoneUpdated          Kind = "ZoneUpdated"
	KindZoneRemoved          Kind = "ZoneRemoved"
	KindNowPlayingChanged    Kind = "NowPlayingChanged"
	KindVolumeChanged        Kind = "VolumeChanged"
	KindSeekPositionChanged  Kind = "SeekPositionChanged"
	KindAdapterConnected     Kind = "AdapterConnected"
	KindAdapterDisconnected  Kind = "AdapterDisconnected"
	KindAdapterStopping      Kind = "AdapterStopping"
	KindAdapterStopped       Kind = "AdapterStopped"
	KindZonesFlushed         Kind = "ZonesFlushed"
	KindShuttingDown         Kind = "ShuttingDown"
	KindHqpPipelineChanged   Kind = "HqpPipelineChanged"
	KindHqpStateChanged      Kind = "HqpStateChanged"
	KindLmsPlayerStateChange Kind = "LmsPlayerStateChanged"
)

// Event is the single tagged-union type carried on the bus. Only the
// fields relevant to Kind are populated; the zero value of the rest is
// ignored by subscribers.
type Event struct {
	Kind Kind

	// Zone/adapter routing
	ZoneID string
	Prefix string

	// Payload carries the event's typed snapshot, when it has one:
	// zone.Zone for ZoneDiscovered/ZoneUpdated, zone.NowPlaying for
	// NowPlayingChanged, zone.Volume for VolumeChanged. Subscribers
	// that care about a payload type-assert it themselves.
	Payload any
	Seek    float64 // SeekPositionChanged, seconds
	Reason  string  // adapter disconnect/stop reason, if any
	Details string  // adapter connect details, if any

	Time time.Time
}

// ZoneRemoved builds a ZoneRemoved event.
func ZoneRemoved(zoneID string) Event {
	return Event{Kind: KindZoneRemoved, Prefix: PrefixOf(zoneID), ZoneID: zoneID, Time: now()}
}

// SeekPositionChanged builds a SeekPositionChanged event.
func SeekPositionChanged(zoneID string, seekSeconds float64) Event {
	return Event{Kind: KindSeekPositionChanged, ZoneID: zoneID, Seek: seekSeconds, Time: now()}
}

// AdapterConnected builds an AdapterConnected event.
func AdapterConnected(prefix, details string) Event {
	return Event{Kind: KindAdapterConnected, Prefix: prefix, Details: details, Time: now()}
}

// AdapterDisconnected builds an AdapterDisconnected event.
func AdapterDisconnected(prefix, reason string) Event {
	return Event{Kind: KindAdapterDisconnected, Prefix: prefix, Reason: reason, Time: now()}
}

// AdapterStopping builds an AdapterStopping event.
func AdapterStopping(prefix string) Event {
	return Event{Kind: KindAdapterStopping, Prefix: prefix, Time: now()}
}

// AdapterStopped builds an AdapterStopped event.
func AdapterStopped(prefix string) Event {
	return Event{Kind: KindAdapterStopped, Prefix: prefix, Time: now()}
}

// ZonesFlushed builds a ZonesFlushed event.
func ZonesFlushed(prefix string) Event {
	return Event{Kind: KindZonesFlushed, Prefix: prefix, Time: now()}
}

// ShuttingDown builds the terminal ShuttingDown event.
func ShuttingDown() Event {
	return Event{Kind: KindShuttingDown, Time: now()}
}

func now() time.Time { return time.Now() }

// PrefixOf returns the adapter prefix of a "<prefix>:<opaque>" zone_id,
// or "" if zoneID carries no colon.
func PrefixOf(zoneID string) string {
	for i := 0; i < len(zoneID); i++ {
		if zoneID[i] == ':' {
			return zoneID[:i]
		}
	}
	return ""
}
