// Package adapter defines the AdapterLogic capability interface every
// source adapter (Roon, LMS, the DSP client, UPnP/OpenHome) implements,
// and the generic lifecycle wrapper (Handle, C3) and coordinator (C4)
// that run any AdapterLogic uniformly.
package adapter

import (
	"context"
	"errors"

	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

var (
	// ErrNotConfigured is returned when an adapter is asked to do work
	// before being given a host/credentials.
	ErrNotConfigured = errors.New("adapter: not configured")
	// ErrNotConnected is returned for transient transport-level failures.
	ErrNotConnected = errors.New("adapter: not connected")
	// ErrTimeout is returned when a request-level deadline elapses.
	ErrTimeout = errors.New("adapter: timeout")
	// ErrUnsupported is returned for capabilities an adapter does not have.
	ErrUnsupported = errors.New("adapter: unsupported")
	// ErrNotFound is returned for a zone_id without a matching zone.
	ErrNotFound = errors.New("adapter: zone not found")
)

// Dependencies are the shared collaborators an AdapterLogic needs to
// publish zone/adapter events as it discovers and tracks state.
type Dependencies struct {
	Bus    *bus.Bus
	Prefix string
}

// AdapterLogic is the capability set a concrete adapter (Roon, LMS,
// hqp, UPnP/OpenHome) implements. Run blocks, polling/subscribing to
// the underlying source and publishing ZoneDiscovered/ZoneUpdated/
// NowPlayingChanged/etc. on the bus, until ctx is cancelled or it
// encounters an unrecoverable error. Stop performs cooperative
// shutdown and must not return until the logic has released its I/O
// resources (the ACK contract the coordinator waits on).
type AdapterLogic interface {
	Prefix() string
	Run(ctx context.Context, deps Dependencies) error
	Stop(ctx context.Context) error
	GetZones(ctx context.Context) ([]zone.Zone, error)
	GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error)
	Control(ctx context.Context, zoneID string, action Action, value float64, hasValue bool) error
}

// Action is a control verb accepted by AdapterLogic.Control.
type Action string

const (
	ActionPlayPause Action = "play_pause"
	ActionPlay      Action = "play"
	ActionPause     Action = "pause"
	ActionStop      Action = "stop"
	ActionNext      Action = "next"
	ActionPrevious  Action = "previous"
	ActionVolRel    Action = "vol_rel"
	ActionVolAbs    Action = "vol_abs"
	ActionSeek      Action = "seek"
)

// ImageProvider is an optional capability: adapters that can serve
// artwork implement it. A missing implementation means get_image on
// that adapter's zones always returns ErrUnsupported (e.g. UPnP).
type ImageProvider interface {
	GetImage(ctx context.Context, imageKey string) (data []byte, contentType string, err error)
}

// StatusProvider is an optional capability exposed by adapters that
// can report adapter-level (not zone-level) status, such as the DSP
// client's connection state.
type StatusProvider interface {
	GetStatus(ctx context.Context) (any, error)
}
