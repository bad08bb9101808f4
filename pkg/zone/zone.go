// Package zone defines the Zone/NowPlaying data model and the
// Aggregator that maintains the single authoritative zone_id -> Zone
// mapping (C2).
package zone

// PlaybackState is the coarse playback state reported for a Zone.
type PlaybackState string

const (
	PlaybackStopped PlaybackState = "stopped"
	PlaybackPaused  PlaybackState = "paused"
	PlaybackPlaying PlaybackState = "playing"
	PlaybackUnknown PlaybackState = "unknown"
)

// VolumeKind distinguishes the scale a Zone's volume control operates on.
type VolumeKind string

const (
	VolumeKindNumber   VolumeKind = "number"
	VolumeKindDecibel  VolumeKind = "decibel"
	VolumeKindFixed    VolumeKind = "fixed"
)

// Volume describes a Zone's volume control, when one exists.
type Volume struct {
	Kind     VolumeKind `json:"kind"`
	Min      float64    `json:"min"`
	Max      float64    `json:"max"`
	Step     float64    `json:"step"`
	IsMuted  bool        `json:"is_muted"`
}

// DSPLink describes a Zone's link to a DSP (HQPlayer-style) instance,
// present only when the zone is routed through one.
type DSPLink struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`
}

// Zone is a logical music-playing endpoint, identified by a
// "<prefix>:<opaque>" zone_id where prefix names the adapter that
// created it. The prefix is authoritative for routing; there is no
// separate source attribute.
type Zone struct {
	ZoneID     string         `json:"zone_id"`
	ZoneName   string         `json:"zone_name"`
	OutputName string         `json:"output_name"`
	DeviceName string         `json:"device_name"`
	Playback   PlaybackState  `json:"-"`
	Volume     *Volume        `json:"-"`
	DSP        *DSPLink       `json:"-"`
}

// NowPlaying is the current playback snapshot for a zone_id. It is
// derived on demand from the owning adapter and never persisted.
type NowPlaying struct {
	ZoneID      string  `json:"zone_id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	IsPlaying   bool    `json:"is_playing"`
	Volume      *Volume `json:"volume,omitempty"`
	SeekSeconds float64 `json:"seek_seconds"`
	LengthSeconds float64 `json:"length_seconds"`
	ImageKey    string  `json:"image_key,omitempty"`
	ArtworkURL  string  `json:"artwork_url,omitempty"`
}
