package hqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

const pollInterval = 5 * time.Second

// AdapterLogic implements adapter.AdapterLogic for a single
// statically-configured DSP instance. The instance is itself a Zone
// (prefix "hqp") whose playback transport, volume, and pipeline are
// all driven through the DSP control port.
type AdapterLogic struct {
	host   string
	zoneID string

	mu         sync.RWMutex
	client     *Client
	bus        *bus.Bus
	lastState  DSPState
	lastStatus DSPStatus
	haveState  bool
}

// NewAdapterLogic creates the hqp AdapterLogic for the DSP instance at host.
func NewAdapterLogic(host string) *AdapterLogic {
	return &AdapterLogic{host: host, zoneID: "hqp:" + host}
}

// Prefix returns "hqp".
func (a *AdapterLogic) Prefix() string { return "hqp" }

// Run connects to the DSP instance, publishes its zone, and polls
// State/Status on pollInterval until ctx is cancelled, publishing
// NowPlayingChanged/HqpStateChanged as they drift, and HqpPipelineChanged
// whenever a poll reveals the mode/filter/shaper/rate/volume selection
// itself moved (as opposed to a playback-only change).
func (a *AdapterLogic) Run(ctx context.Context, deps adapter.Dependencies) error {
	if a.host == "" {
		return fmt.Errorf("hqp: no instance host configured: %w", adapter.ErrNotConfigured)
	}

	a.mu.Lock()
	a.bus = deps.Bus
	a.client = NewClient(a.host, a.onStateChange)
	a.mu.Unlock()

	deps.Bus.Publish(zone.DiscoveredEvent(zone.Zone{
		ZoneID:   a.zoneID,
		ZoneName: "HQPlayer (" + a.host + ")",
		DSP:      &zone.DSPLink{Type: "hqplayer", Instance: a.host},
	}))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	a.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

// Stop closes the DSP connection; the close itself publishes the
// disconnected state through onStateChange before returning.
func (a *AdapterLogic) Stop(ctx context.Context) error {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

func (a *AdapterLogic) onStateChange(sc StateChange) {
	a.mu.RLock()
	b := a.bus
	a.mu.RUnlock()
	if b == nil {
		return
	}
	if sc.Connected {
		b.Publish(bus.AdapterConnected("hqp", a.host))
	} else {
		b.Publish(bus.AdapterDisconnected("hqp", sc.Reason))
	}
}

func (a *AdapterLogic) poll(ctx context.Context) {
	a.mu.RLock()
	client := a.client
	b := a.bus
	a.mu.RUnlock()
	if client == nil || b == nil {
		return
	}

	state, err := client.State(ctx)
	if err != nil {
		log.Debug().Err(err).Str("host", a.host).Msg("hqp: poll State failed")
		return
	}
	status, err := client.Status(ctx, false)
	if err != nil {
		log.Debug().Err(err).Str("host", a.host).Msg("hqp: poll Status failed")
		return
	}

	a.mu.Lock()
	haveState := a.haveState
	prev := a.lastState
	pipelineMoved := haveState && pipelineFieldsChanged(prev, state)
	// Filter1xIdx/FilterNxIdx are freshly allocated by every parse, so
	// they are compared by value (in pipelineFieldsChanged), not by
	// address.
	prevCmp, curCmp := prev, state
	prevCmp.Filter1xIdx, prevCmp.FilterNxIdx, curCmp.Filter1xIdx, curCmp.FilterNxIdx = nil, nil, nil, nil
	changed := !haveState || prevCmp != curCmp || pipelineMoved
	a.lastState = state
	a.lastStatus = status
	a.haveState = true
	a.mu.Unlock()

	if changed {
		b.Publish(bus.Event{
			Kind:    bus.KindHqpStateChanged,
			ZoneID:  a.zoneID,
			Prefix:  "hqp",
			Payload: state,
			Time:    time.Now(),
		})
		b.Publish(zone.NowPlayingEvent(a.zoneID, zone.NowPlaying{
			ZoneID:        a.zoneID,
			IsPlaying:     state.PlaybackState == PlaybackPlaying,
			SeekSeconds:   status.PositionSeconds,
			LengthSeconds: status.LengthSeconds,
		}))
	}

	if pipelineMoved {
		view, err := client.GetPipeline(ctx)
		if err != nil {
			log.Debug().Err(err).Str("host", a.host).Msg("hqp: resolve pipeline view for HqpPipelineChanged failed")
			return
		}
		b.Publish(bus.Event{
			Kind:    bus.KindHqpPipelineChanged,
			ZoneID:  a.zoneID,
			Prefix:  "hqp",
			Payload: view,
			Time:    time.Now(),
		})
	}
}

// pipelineFieldsChanged reports whether any of the mode/filter/shaper/
// rate/volume selections moved between two polled states, as opposed
// to a playback-only change (position, play/pause).
func pipelineFieldsChanged(prev, cur DSPState) bool {
	if prev.ModeIdx != cur.ModeIdx || prev.FilterIdx != cur.FilterIdx ||
		prev.ShaperIdx != cur.ShaperIdx || prev.RateIdx != cur.RateIdx ||
		prev.VolumeDB != cur.VolumeDB || prev.ActiveModeIdx != cur.ActiveModeIdx ||
		prev.ActiveRateHz != cur.ActiveRateHz {
		return true
	}
	prevF1x, curF1x := intPtrVal(prev.Filter1xIdx), intPtrVal(cur.Filter1xIdx)
	prevFNx, curFNx := intPtrVal(prev.FilterNxIdx), intPtrVal(cur.FilterNxIdx)
	return prevF1x != curF1x || prevFNx != curFNx
}

func intPtrVal(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

// GetZones returns the single zone this instance owns.
func (a *AdapterLogic) GetZones(ctx context.Context) ([]zone.Zone, error) {
	return []zone.Zone{{
		ZoneID:   a.zoneID,
		ZoneName: "HQPlayer (" + a.host + ")",
		DSP:      &zone.DSPLink{Type: "hqplayer", Instance: a.host},
	}}, nil
}

// GetNowPlaying returns the most recently polled now-playing snapshot.
func (a *AdapterLogic) GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	if zoneID != a.zoneID {
		return zone.NowPlaying{}, fmt.Errorf("hqp: %q: %w", zoneID, adapter.ErrNotFound)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.haveState {
		return zone.NowPlaying{}, fmt.Errorf("hqp: no state polled yet: %w", adapter.ErrNotConnected)
	}
	return zone.NowPlaying{
		ZoneID:        a.zoneID,
		IsPlaying:     a.lastState.PlaybackState == PlaybackPlaying,
		SeekSeconds:   a.lastStatus.PositionSeconds,
		LengthSeconds: a.lastStatus.LengthSeconds,
	}, nil
}

// Control maps a generic adapter.Action onto the corresponding DSP
// transport/volume command.
func (a *AdapterLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	if zoneID != a.zoneID {
		return fmt.Errorf("hqp: %q: %w", zoneID, adapter.ErrNotFound)
	}
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return adapter.ErrNotConnected
	}

	switch action {
	case adapter.ActionPlayPause:
		state, err := client.State(ctx)
		if err != nil {
			return err
		}
		if state.PlaybackState == PlaybackPlaying {
			return client.Pause(ctx)
		}
		return client.Play(ctx, 0, false)
	case adapter.ActionPlay:
		return client.Play(ctx, int(value), hasValue)
	case adapter.ActionPause:
		return client.Pause(ctx)
	case adapter.ActionStop:
		return client.Stop(ctx)
	case adapter.ActionNext:
		return client.Next(ctx)
	case adapter.ActionPrevious:
		return client.Previous(ctx)
	case adapter.ActionVolAbs:
		if !hasValue {
			return fmt.Errorf("hqp: vol_abs requires a value: %w", adapter.ErrUnsupported)
		}
		return client.Volume(ctx, value)
	case adapter.ActionVolRel:
		if !hasValue {
			return fmt.Errorf("hqp: vol_rel requires a value: %w", adapter.ErrUnsupported)
		}
		if value > 0 {
			return client.VolumeUp(ctx)
		}
		return client.VolumeDown(ctx)
	case adapter.ActionSeek:
		if !hasValue {
			return fmt.Errorf("hqp: seek requires a value: %w", adapter.ErrUnsupported)
		}
		return client.Seek(ctx, value)
	default:
		return fmt.Errorf("hqp: action %q: %w", action, adapter.ErrUnsupported)
	}
}

// Pipeline returns the current PipelineView for this instance.
func (a *AdapterLogic) Pipeline(ctx context.Context) (PipelineView, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return PipelineView{}, adapter.ErrNotConnected
	}
	return client.GetPipeline(ctx)
}

// SetPipeline applies a pipeline setting on this instance.
func (a *AdapterLogic) SetPipeline(ctx context.Context, setting Setting, value string) error {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return adapter.ErrNotConnected
	}
	return client.SetPipeline(ctx, setting, value)
}
