// Package bridge is the public facade the rest of the repository (the
// HTTP+SSE layer, or any other consumer) programs against: zones,
// now-playing, control, artwork, DSP pipeline, and the event stream.
// It owns no state of its own — it wires together the bus, the zone
// aggregator, and the adapter coordinator that already own it.
package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/hqp"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// imageFetchTimeout bounds a direct fetch of an absolute-URL image_key.
const imageFetchTimeout = 10 * time.Second

// pipelineLogic is the capability an AdapterLogic must implement to
// serve pipeline()/set_pipeline(); only pkg/hqp does. It is declared
// here, not in pkg/adapter, so pkg/adapter never needs to import
// pkg/hqp's PipelineView/Setting types.
type pipelineLogic interface {
	Pipeline(ctx context.Context) (hqp.PipelineView, error)
	SetPipeline(ctx context.Context, setting hqp.Setting, value string) error
}

// Bridge is the core's public facade (spec §6).
type Bridge struct {
	bus        *bus.Bus
	aggregator *zone.Aggregator
	coord      *adapter.Coordinator
	httpClient *http.Client
}

// New creates a Bridge over the given bus, aggregator and coordinator.
// All three are expected to already be running.
func New(b *bus.Bus, agg *zone.Aggregator, coord *adapter.Coordinator) *Bridge {
	return &Bridge{
		bus:        b,
		aggregator: agg,
		coord:      coord,
		httpClient: &http.Client{Timeout: imageFetchTimeout},
	}
}

// Zones returns every zone currently known to the aggregator.
func (br *Bridge) Zones() []zone.Zone {
	return br.aggregator.ListZones()
}

// NowPlaying returns the current now-playing snapshot for zoneID,
// queried live from the owning adapter (NowPlaying is derived on
// demand, never persisted).
func (br *Bridge) NowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	return br.coord.GetNowPlaying(ctx, zoneID)
}

// Control issues a control command to the adapter owning zoneID.
func (br *Bridge) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	return br.coord.Control(ctx, zoneID, action, value, hasValue)
}

// GetImage resolves imageKey to (contentType, bytes). An absolute URL
// is fetched directly; anything else is delegated to the adapter
// identified by zoneID's prefix.
func (br *Bridge) GetImage(ctx context.Context, imageKey, zoneID string) ([]byte, string, error) {
	if strings.HasPrefix(imageKey, "http://") || strings.HasPrefix(imageKey, "https://") {
		return br.fetchDirect(ctx, imageKey)
	}
	return br.coord.GetImage(ctx, zoneID, imageKey)
}

func (br *Bridge) fetchDirect(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("bridge: build image request: %w", err)
	}

	resp, err := br.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("bridge: fetch image: %w: %w", adapter.ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("bridge: fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("bridge: read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// Pipeline returns the current DSP pipeline view. There is at most one
// DSP instance in this deployment (see DESIGN.md's pkg/hqp entry), so
// this is not zone-scoped: it always addresses the running "hqp" adapter.
func (br *Bridge) Pipeline(ctx context.Context) (hqp.PipelineView, error) {
	logic, err := br.hqpLogic()
	if err != nil {
		return hqp.PipelineView{}, err
	}
	return logic.Pipeline(ctx)
}

// SetPipeline mutates one dimension of the running DSP instance's pipeline.
func (br *Bridge) SetPipeline(ctx context.Context, setting hqp.Setting, value string) error {
	logic, err := br.hqpLogic()
	if err != nil {
		return err
	}
	return logic.SetPipeline(ctx, setting, value)
}

func (br *Bridge) hqpLogic() (pipelineLogic, error) {
	raw, ok := br.coord.LogicFor("hqp")
	if !ok {
		return nil, fmt.Errorf("bridge: no hqp adapter running: %w", adapter.ErrNotConfigured)
	}
	logic, ok := raw.(pipelineLogic)
	if !ok {
		return nil, fmt.Errorf("bridge: hqp adapter does not support pipeline control: %w", adapter.ErrUnsupported)
	}
	return logic, nil
}

// SubscribeEvents returns a live subscription to the bus. Callers must
// Close it when done.
func (br *Bridge) SubscribeEvents() *bus.Subscription {
	return br.bus.Subscribe()
}
