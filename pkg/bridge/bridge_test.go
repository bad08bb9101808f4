package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/hqp"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// stubLogic is a minimal AdapterLogic double for exercising Bridge
// routing without spinning up a real adapter package.
type stubLogic struct {
	prefix      string
	zones       []zone.Zone
	nowPlaying  zone.NowPlaying
	nowPlayingErr error
	controlErr  error
	lastAction  adapter.Action
	lastValue   float64
	lastHasVal  bool
}

func (s *stubLogic) Prefix() string { return s.prefix }
func (s *stubLogic) Run(ctx context.Context, deps adapter.Dependencies) error {
	<-ctx.Done()
	return nil
}
func (s *stubLogic) Stop(ctx context.Context) error { return nil }
func (s *stubLogic) GetZones(ctx context.Context) ([]zone.Zone, error) { return s.zones, nil }
func (s *stubLogic) GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	return s.nowPlaying, s.nowPlayingErr
}
func (s *stubLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	s.lastAction, s.lastValue, s.lastHasVal = action, value, hasValue
	return s.controlErr
}

// pipelineStub adds pipelineLogic on top of stubLogic, for hqp routing tests.
type pipelineStub struct {
	stubLogic
	view    hqp.PipelineView
	setErr  error
	lastSetting hqp.Setting
	lastValue2  string
}

func (p *pipelineStub) Pipeline(ctx context.Context) (hqp.PipelineView, error) { return p.view, nil }
func (p *pipelineStub) SetPipeline(ctx context.Context, setting hqp.Setting, value string) error {
	p.lastSetting, p.lastValue2 = setting, value
	return p.setErr
}

func startCoordinatorWith(t *testing.T, prefix string, logic adapter.AdapterLogic) (*bus.Bus, *adapter.Coordinator) {
	t.Helper()
	b := bus.New()
	coord := adapter.NewCoordinator(b)
	coord.RegisterFactory(prefix, func() adapter.AdapterLogic { return logic })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := coord.Enable(ctx, prefix); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		found := false
		for _, p := range coord.Prefixes() {
			if p == prefix {
				found = true
			}
		}
		if found {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	return b, coord
}

func TestZonesReturnsAggregatorSnapshot(t *testing.T) {
	b := bus.New()
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()

	coord := adapter.NewCoordinator(b)
	br := New(b, agg, coord)

	b.Publish(zone.DiscoveredEvent(zone.Zone{ZoneID: "lms:1", ZoneName: "Kitchen"}))
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(br.Zones()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	zones := br.Zones()
	if len(zones) != 1 || zones[0].ZoneID != "lms:1" {
		t.Fatalf("Zones() = %+v, want one zone lms:1", zones)
	}
}

func TestControlRoutesToOwningAdapter(t *testing.T) {
	logic := &stubLogic{prefix: "lms"}
	b, coord := startCoordinatorWith(t, "lms", logic)
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()

	br := New(b, agg, coord)
	if err := br.Control(context.Background(), "lms:1", adapter.ActionPlay, 0, false); err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if logic.lastAction != adapter.ActionPlay {
		t.Fatalf("lastAction = %v, want play", logic.lastAction)
	}
}

func TestControlUnknownPrefixReturnsNotFound(t *testing.T) {
	b := bus.New()
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()
	coord := adapter.NewCoordinator(b)
	br := New(b, agg, coord)

	err := br.Control(context.Background(), "bogus:1", adapter.ActionPlay, 0, false)
	if !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("Control() error = %v, want ErrNotFound", err)
	}
}

func TestPipelineDelegatesToHqpAdapter(t *testing.T) {
	logic := &pipelineStub{stubLogic: stubLogic{prefix: "hqp"}, view: hqp.PipelineView{Mode: "PCM"}}
	b, coord := startCoordinatorWith(t, "hqp", logic)
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()

	br := New(b, agg, coord)
	view, err := br.Pipeline(context.Background())
	if err != nil {
		t.Fatalf("Pipeline() error = %v", err)
	}
	if view.Mode != "PCM" {
		t.Fatalf("Pipeline().Mode = %q, want PCM", view.Mode)
	}

	if err := br.SetPipeline(context.Background(), hqp.SettingMode, "SDM"); err != nil {
		t.Fatalf("SetPipeline() error = %v", err)
	}
	if logic.lastSetting != hqp.SettingMode || logic.lastValue2 != "SDM" {
		t.Fatalf("SetPipeline routed (%v, %v), want (mode, SDM)", logic.lastSetting, logic.lastValue2)
	}
}

func TestPipelineWithoutHqpAdapterReturnsNotConfigured(t *testing.T) {
	b := bus.New()
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()
	coord := adapter.NewCoordinator(b)
	br := New(b, agg, coord)

	_, err := br.Pipeline(context.Background())
	if !errors.Is(err, adapter.ErrNotConfigured) {
		t.Fatalf("Pipeline() error = %v, want ErrNotConfigured", err)
	}
}

func TestPipelineOnNonHqpAdapterReturnsUnsupported(t *testing.T) {
	logic := &stubLogic{prefix: "hqp"}
	b, coord := startCoordinatorWith(t, "hqp", logic)
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()

	br := New(b, agg, coord)
	_, err := br.Pipeline(context.Background())
	if !errors.Is(err, adapter.ErrUnsupported) {
		t.Fatalf("Pipeline() error = %v, want ErrUnsupported", err)
	}
}

func TestGetImageFetchesAbsoluteURLDirectly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("fake-png-bytes"))
	}))
	defer srv.Close()

	b := bus.New()
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()
	coord := adapter.NewCoordinator(b)
	br := New(b, agg, coord)

	data, contentType, err := br.GetImage(context.Background(), srv.URL+"/art.png", "")
	if err != nil {
		t.Fatalf("GetImage() error = %v", err)
	}
	if contentType != "image/png" || string(data) != "fake-png-bytes" {
		t.Fatalf("GetImage() = (%q, %q), want (fake-png-bytes, image/png)", data, contentType)
	}
}

func TestGetImageDelegatesNonURLKeyToAdapter(t *testing.T) {
	logic := &stubLogic{prefix: "roon"}
	b, coord := startCoordinatorWith(t, "roon", logic)
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()

	br := New(b, agg, coord)
	_, _, err := br.GetImage(context.Background(), "opaque-image-key", "roon:1")
	// stubLogic does not implement ImageProvider, so this must surface
	// ErrUnsupported via the coordinator, proving delegation happened
	// rather than a direct fetch being attempted.
	if !errors.Is(err, adapter.ErrUnsupported) {
		t.Fatalf("GetImage() error = %v, want ErrUnsupported", err)
	}
}
