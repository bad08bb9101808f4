package httpapi

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muness/unified-hifi-control/pkg/bridge"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

const sseHeartbeatInterval = 30 * time.Second

// WireEvent is the SSE/event-stream shape from spec.md §6: one JSON
// object per event, narrowed from the bus's internal Event to exactly
// the fields a non-adapter consumer needs.
type WireEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ToWire narrows a bus.Event to its wire representation. Zone/NowPlaying
// payloads are re-shaped through the same conversions the REST handlers
// use; events with no rich payload carry a small synthesized map built
// from the Event's routing/reason fields.
func ToWire(ev bus.Event) WireEvent {
	switch ev.Kind {
	case bus.KindZoneDiscovered, bus.KindZoneUpdated:
		if z, ok := ev.Payload.(zone.Zone); ok {
			return WireEvent{Type: string(ev.Kind), Payload: ToZoneResponse(z)}
		}
	case bus.KindNowPlayingChanged:
		if np, ok := ev.Payload.(zone.NowPlaying); ok {
			return WireEvent{Type: string(ev.Kind), Payload: np}
		}
	case bus.KindVolumeChanged:
		if v, ok := ev.Payload.(zone.Volume); ok {
			return WireEvent{Type: string(ev.Kind), Payload: map[string]any{"zone_id": ev.ZoneID, "volume": v}}
		}
	case bus.KindZoneRemoved:
		return WireEvent{Type: string(ev.Kind), Payload: map[string]any{"zone_id": ev.ZoneID}}
	case bus.KindSeekPositionChanged:
		return WireEvent{Type: string(ev.Kind), Payload: map[string]any{"zone_id": ev.ZoneID, "seek_seconds": ev.Seek}}
	case bus.KindAdapterConnected:
		return WireEvent{Type: string(ev.Kind), Payload: map[string]any{"prefix": ev.Prefix, "details": ev.Details}}
	case bus.KindAdapterDisconnected:
		return WireEvent{Type: string(ev.Kind), Payload: map[string]any{"prefix": ev.Prefix, "reason": ev.Reason}}
	case bus.KindAdapterStopping, bus.KindAdapterStopped, bus.KindZonesFlushed:
		return WireEvent{Type: string(ev.Kind), Payload: map[string]any{"prefix": ev.Prefix}}
	case bus.KindShuttingDown:
		return WireEvent{Type: string(ev.Kind), Payload: map[string]any{}}
	}
	// Adapter-specific state-changed events (DSP pipeline/state, LMS
	// player state) and anything else: pass the payload through as-is.
	return WireEvent{Type: string(ev.Kind), Payload: ev.Payload}
}

type eventsHandler struct {
	br *bridge.Bridge
}

// subscribeEvents handles GET /events (SSE stream), terminated when
// ShuttingDown crosses the bus or the client disconnects.
func (h *eventsHandler) subscribeEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.br.SubscribeEvents()
	defer sub.Close()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			writeSSE(c.Writer, ToWire(ev))
			c.Writer.Flush()
			if ev.Kind == bus.KindShuttingDown {
				return
			}

		case <-ticker.C:
			writeSSE(c.Writer, WireEvent{Type: "heartbeat", Payload: map[string]any{"timestamp": time.Now()}})
			c.Writer.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev WireEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	io.WriteString(w, "event: "+ev.Type+"\n")
	io.WriteString(w, "data: "+string(data)+"\n\n")
}
