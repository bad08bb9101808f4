package hqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bus"
)

func TestAdapterLogicPrefixAndZoneID(t *testing.T) {
	a := NewAdapterLogic("192.168.1.50")
	if a.Prefix() != "hqp" {
		t.Fatalf("Prefix() = %q, want hqp", a.Prefix())
	}
	zones, err := a.GetZones(context.Background())
	if err != nil {
		t.Fatalf("GetZones() error = %v", err)
	}
	if len(zones) != 1 || zones[0].ZoneID != "hqp:192.168.1.50" {
		t.Fatalf("GetZones() = %+v, want single zone hqp:192.168.1.50", zones)
	}
	if zones[0].DSP == nil || zones[0].DSP.Type != "hqplayer" {
		t.Fatalf("GetZones()[0].DSP = %+v, want Type=hqplayer", zones[0].DSP)
	}
}

func TestAdapterLogicControlBeforeConnectReturnsNotConnected(t *testing.T) {
	a := NewAdapterLogic("192.168.1.50")
	err := a.Control(context.Background(), "hqp:192.168.1.50", adapter.ActionPlay, 0, false)
	if !errors.Is(err, adapter.ErrNotConnected) {
		t.Fatalf("Control() error = %v, want ErrNotConnected before Run", err)
	}
}

func TestAdapterLogicControlUnknownZoneReturnsNotFound(t *testing.T) {
	a := NewAdapterLogic("192.168.1.50")
	err := a.Control(context.Background(), "hqp:other-host", adapter.ActionPlay, 0, false)
	if !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("Control() error = %v, want ErrNotFound for a foreign zone_id", err)
	}
}

func TestAdapterLogicControlVolRelRequiresValue(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.close()
	scriptFullInstance(fs)

	a := &AdapterLogic{host: "x", zoneID: "hqp:x", client: newTestClient(fs, nil)}
	err := a.Control(context.Background(), "hqp:x", adapter.ActionVolRel, 0, false)
	if !errors.Is(err, adapter.ErrUnsupported) {
		t.Fatalf("Control(vol_rel, hasValue=false) error = %v, want ErrUnsupported", err)
	}
}

func TestAdapterLogicControlVolRelRoutesUpAndDown(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.close()
	scriptFullInstance(fs)

	a := &AdapterLogic{host: "x", zoneID: "hqp:x", client: newTestClient(fs, nil)}
	if err := a.Control(context.Background(), "hqp:x", adapter.ActionVolRel, 1, true); err != nil {
		t.Fatalf("Control(vol_rel, +1) error = %v", err)
	}
	if fs.lastAttrs("VolumeUp") == nil {
		t.Fatal("VolumeUp was not invoked for a positive vol_rel")
	}
	if err := a.Control(context.Background(), "hqp:x", adapter.ActionVolRel, -1, true); err != nil {
		t.Fatalf("Control(vol_rel, -1) error = %v", err)
	}
	if fs.lastAttrs("VolumeDown") == nil {
		t.Fatal("VolumeDown was not invoked for a negative vol_rel")
	}
}

func TestAdapterLogicControlPlayPauseTogglesOnState(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.close()
	scriptFullInstance(fs) // State reports state="2" (playing)

	a := &AdapterLogic{host: "x", zoneID: "hqp:x", client: newTestClient(fs, nil)}
	if err := a.Control(context.Background(), "hqp:x", adapter.ActionPlayPause, 0, false); err != nil {
		t.Fatalf("Control(play_pause) error = %v", err)
	}
	if fs.lastAttrs("Pause") == nil {
		t.Fatal("Pause was not invoked when State reported playing")
	}
}

func TestAdapterLogicGetNowPlayingBeforePollReturnsNotConnected(t *testing.T) {
	a := NewAdapterLogic("192.168.1.50")
	_, err := a.GetNowPlaying(context.Background(), "hqp:192.168.1.50")
	if !errors.Is(err, adapter.ErrNotConnected) {
		t.Fatalf("GetNowPlaying() error = %v, want ErrNotConnected before any poll", err)
	}
}

func TestAdapterLogicGetNowPlayingUnknownZoneReturnsNotFound(t *testing.T) {
	a := NewAdapterLogic("192.168.1.50")
	_, err := a.GetNowPlaying(context.Background(), "hqp:other-host")
	if !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("GetNowPlaying() error = %v, want ErrNotFound", err)
	}
}

func TestAdapterLogicPollPublishesHqpPipelineChangedOnDrift(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.close()
	scriptFullInstance(fs) // mode_idx=1 filter_idx=1 shaper_idx=1 rate_idx=1 volume_db=-20

	b := bus.New()
	sub := b.Subscribe()
	defer sub.Close()

	a := &AdapterLogic{host: "x", zoneID: "hqp:x", client: newTestClient(fs, nil), bus: b}
	a.poll(context.Background()) // first poll only seeds lastState, nothing to diff against
	drainEvents(sub, 200*time.Millisecond)

	fs.set("State", `<State state="2" mode_idx="0" filter_idx="1" shaper_idx="1" rate_idx="1" volume_db="-20" active_mode_idx="0" active_rate="96000"/>`+"\n")
	a.poll(context.Background())

	if !drainEvents(sub, 2*time.Second).has(bus.KindHqpPipelineChanged) {
		t.Fatal("poll() did not publish HqpPipelineChanged after mode_idx drift")
	}
}

func TestAdapterLogicPollSkipsHqpPipelineChangedOnPlaybackOnlyDrift(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.close()
	scriptFullInstance(fs)

	b := bus.New()
	sub := b.Subscribe()
	defer sub.Close()

	a := &AdapterLogic{host: "x", zoneID: "hqp:x", client: newTestClient(fs, nil), bus: b}
	a.poll(context.Background())
	drainEvents(sub, 200*time.Millisecond)

	// Same pipeline selection, playback state flips to paused: only
	// HqpStateChanged/NowPlayingChanged should fire, not HqpPipelineChanged.
	fs.set("State", `<State state="1" mode_idx="1" filter_idx="1" shaper_idx="1" rate_idx="1" volume_db="-20" active_mode_idx="1" active_rate="96000"/>`+"\n")
	a.poll(context.Background())

	kinds := drainEvents(sub, 2*time.Second)
	if !kinds.has(bus.KindHqpStateChanged) {
		t.Fatal("poll() did not publish HqpStateChanged on a playback-state drift")
	}
	if kinds.has(bus.KindHqpPipelineChanged) {
		t.Fatal("poll() published HqpPipelineChanged for a playback-only drift")
	}
}

type seenKinds map[bus.Kind]bool

func (k seenKinds) has(kind bus.Kind) bool { return k[kind] }

func drainEvents(sub *bus.Subscription, within time.Duration) seenKinds {
	seen := seenKinds{}
	deadline := time.After(within)
	for {
		select {
		case ev := <-sub.C:
			seen[ev.Kind] = true
		case <-deadline:
			return seen
		}
	}
}

func TestAdapterLogicPipelineBeforeConnectReturnsNotConnected(t *testing.T) {
	a := NewAdapterLogic("192.168.1.50")
	if _, err := a.Pipeline(context.Background()); !errors.Is(err, adapter.ErrNotConnected) {
		t.Fatalf("Pipeline() error = %v, want ErrNotConnected", err)
	}
	if err := a.SetPipeline(context.Background(), SettingMode, "Direct"); !errors.Is(err, adapter.ErrNotConnected) {
		t.Fatalf("SetPipeline() error = %v, want ErrNotConnected", err)
	}
}
