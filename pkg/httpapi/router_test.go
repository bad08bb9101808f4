package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bridge"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/control"
	"github.com/muness/unified-hifi-control/pkg/hqp"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// stubLogic is a minimal AdapterLogic double for exercising the HTTP
// surface end-to-end without a real adapter package.
type stubLogic struct {
	prefix     string
	zones      []zone.Zone
	nowPlaying zone.NowPlaying
	controlErr error
	lastAction adapter.Action
	lastValue  float64
	lastHasVal bool

	view        hqp.PipelineView
	lastSetting hqp.Setting
	lastSetVal  string
}

func (s *stubLogic) Prefix() string { return s.prefix }
func (s *stubLogic) Run(ctx context.Context, deps adapter.Dependencies) error {
	<-ctx.Done()
	return nil
}
func (s *stubLogic) Stop(ctx context.Context) error { return nil }
func (s *stubLogic) GetZones(ctx context.Context) ([]zone.Zone, error) { return s.zones, nil }
func (s *stubLogic) GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	return s.nowPlaying, nil
}
func (s *stubLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	s.lastAction, s.lastValue, s.lastHasVal = action, value, hasValue
	return s.controlErr
}
func (s *stubLogic) Pipeline(ctx context.Context) (hqp.PipelineView, error) { return s.view, nil }
func (s *stubLogic) SetPipeline(ctx context.Context, setting hqp.Setting, value string) error {
	s.lastSetting, s.lastSetVal = setting, value
	return nil
}

// newTestRouter wires a Bridge backed by a live Bus/Aggregator/Coordinator
// running a single stub "lms" adapter, plus a standalone "hqp" adapter for
// pipeline routes, and returns a gin engine ready for httptest.
func newTestRouter(t *testing.T) (*Router, *bus.Bus, *stubLogic, *stubLogic) {
	t.Helper()
	b := bus.New()
	agg := zone.NewAggregator(b)
	go agg.Run()
	t.Cleanup(agg.Close)

	coord := adapter.NewCoordinator(b)

	lms := &stubLogic{prefix: "lms", zones: []zone.Zone{{ZoneID: "lms:1", ZoneName: "Kitchen"}}}
	hqpLogic := &stubLogic{prefix: "hqp", view: hqp.PipelineView{Mode: "PCM"}}

	coord.RegisterFactory("lms", func() adapter.AdapterLogic { return lms })
	coord.RegisterFactory("hqp", func() adapter.AdapterLogic { return hqpLogic })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := coord.Enable(ctx, "lms"); err != nil {
		t.Fatalf("Enable(lms) error = %v", err)
	}
	if err := coord.Enable(ctx, "hqp"); err != nil {
		t.Fatalf("Enable(hqp) error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(coord.Prefixes()) < 2 {
		time.Sleep(5 * time.Millisecond)
	}

	br := bridge.New(b, agg, coord)
	r := NewRouter(br, control.NewValidator())
	return r, b, lms, hqpLogic
}

func TestListZones(t *testing.T) {
	r, b, _, _ := newTestRouter(t)
	b.Publish(zone.DiscoveredEvent(zone.Zone{ZoneID: "lms:1", ZoneName: "Kitchen"}))

	deadline := time.Now().Add(time.Second)
	var body []byte
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/zones", nil)
		r.Engine().ServeHTTP(rec, req)
		if bytes.Contains(rec.Body.Bytes(), []byte("lms:1")) {
			body = rec.Body.Bytes()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if body == nil {
		t.Fatal("GET /zones never reported lms:1")
	}
	var resp ZonesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Zones) != 1 || resp.Zones[0].ZoneID != "lms:1" {
		t.Fatalf("Zones = %+v", resp.Zones)
	}
}

func TestPostControlValid(t *testing.T) {
	r, _, lms, _ := newTestRouter(t)

	payload := []byte(`{"zone_id":"lms:1","action":"play"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(payload))
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if lms.lastAction != adapter.ActionPlay {
		t.Fatalf("lastAction = %v, want play", lms.lastAction)
	}
}

func TestPostControlMissingRequiredValue(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	payload := []byte(`{"zone_id":"lms:1","action":"vol_abs"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(payload))
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPostControlUnknownZoneReturns404(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	payload := []byte(`{"zone_id":"bogus:1","action":"play"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(payload))
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetPipeline(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/hqp/pipeline", nil)
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp PipelineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Mode != "PCM" {
		t.Fatalf("Mode = %q, want PCM", resp.Mode)
	}
}

func TestPostPipelineValid(t *testing.T) {
	r, _, _, hqpLogic := newTestRouter(t)

	payload := []byte(`{"setting":"mode","value":"SDM"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hqp/pipeline", bytes.NewReader(payload))
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if hqpLogic.lastSetting != hqp.SettingMode || hqpLogic.lastSetVal != "SDM" {
		t.Fatalf("routed (%v, %v), want (mode, SDM)", hqpLogic.lastSetting, hqpLogic.lastSetVal)
	}
}

func TestPostPipelineRejectsUnknownSetting(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	payload := []byte(`{"setting":"bogus","value":"x"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hqp/pipeline", bytes.NewReader(payload))
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetImageMissingKeyReturns400(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/image", nil)
	r.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
