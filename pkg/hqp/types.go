// Package hqp implements the DSP protocol client (C5): a long-lived
// TCP connection to a HQPlayer-style control port speaking
// newline-delimited XML, its UDP multicast discovery channel, and the
// PipelineView abstraction that hides the wire protocol's
// index/value/name translation from callers.
package hqp

// ListItem is one entry of an enumerable DSP list (modes, filters,
// shapers). Index is the stable wire position; Value is a separate
// internal identifier that need not agree with Index and exists only
// as a cache-stable identifier for clients — the live protocol always
// addresses list entries by Index. Name is the display string.
type ListItem struct {
	Index int
	Value int
	Name  string
}

// RateItem is a sample-rate list entry: rates carry (index, rate_hz)
// only, with no separate Value identifier.
type RateItem struct {
	Index  int
	RateHz int
}

// VolumeRange describes the DSP instance's volume control scale.
type VolumeRange struct {
	MinDB   float64
	MaxDB   float64
	Step    float64
	Enabled bool
	Adaptive bool
}

// PlaybackState mirrors the wire protocol's State.state field.
type PlaybackState int

const (
	PlaybackStopped PlaybackState = 0
	PlaybackPaused  PlaybackState = 1
	PlaybackPlaying PlaybackState = 2
)

// RepeatMode mirrors the wire protocol's State.repeat field.
type RepeatMode int

const (
	RepeatOff RepeatMode = 0
	RepeatOne RepeatMode = 1
	RepeatAll RepeatMode = 2
)

// DSPState is the snapshot returned by <State/>. Every field suffixed
// Idx is a position into the correspondingly named cached list;
// ActiveRateHz is a frequency in Hz, never an index.
type DSPState struct {
	PlaybackState PlaybackState
	ModeIdx       int
	FilterIdx     int
	Filter1xIdx   *int
	FilterNxIdx   *int
	ShaperIdx     int
	RateIdx       int
	VolumeDB      float64
	ActiveModeIdx int
	ActiveRateHz  int
	Invert        bool
	Convolution   bool
	Random        bool
	Adaptive      bool
	Filter20k     bool
	Repeat        RepeatMode
	MatrixProfile string
}

// DSPStatus is the snapshot returned by <Status/>. ActiveMode is
// display-only and unreliable; the authoritative active mode is
// DSPState.ActiveModeIdx.
type DSPStatus struct {
	PositionSeconds float64
	LengthSeconds   float64
	ActiveFilter    string
	ActiveShaper    string
	ActiveMode      string
	OutputBits      int
	OutputChannels  int
	OutputRateHz    int
}

// GetInfo is the snapshot returned by <GetInfo/>.
type GetInfo struct {
	Name     string
	Product  string
	Version  string
	Platform string
	Engine   string
}

// PipelineView is the high-level, name/Hz-based view of a DSP
// instance's current pipeline exposed to non-adapter callers. All
// index/value wire-protocol translation happens inside this package;
// PipelineView never carries a raw index.
type PipelineView struct {
	Mode       string
	Filter1x   string
	FilterNx   string
	Shaper     string
	SampleRateHz int // 0 means "auto"
	VolumeDB   float64
	VolumeRange VolumeRange

	// ActiveMode/ActiveRateHz are authoritative (from DSPState); the
	// ActiveFilter/ActiveShaper display strings come from DSPStatus
	// and are informational only.
	ActiveMode     string
	ActiveRateHz   int
	ActiveFilter   string
	ActiveShaper   string
}

// Setting identifies a settable pipeline dimension for SetPipeline.
type Setting string

const (
	SettingMode       Setting = "mode"
	SettingFilter1x   Setting = "filter1x"
	SettingFilterNx   Setting = "filterNx"
	SettingShaper     Setting = "shaper"
	SettingSampleRate Setting = "samplerate"
	SettingVolumeDB   Setting = "volume_db"
)
