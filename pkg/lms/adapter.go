package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

const pollInterval = 5 * time.Second

// AdapterLogic implements adapter.AdapterLogic over a single LMS
// server, polling its player list and per-player status rather than
// holding the long-lived CLI/comet subscription a full client would
// use — sufficient to exercise one more concrete adapter in the
// coordinator without reimplementing LMS's whole protocol surface.
type AdapterLogic struct {
	host string
	port int

	mu        sync.RWMutex
	client    *Client
	bus       *bus.Bus
	players   map[string]string // playerid -> zone_id
	lastModes map[string]string // playerid -> last polled "mode"
}

// NewAdapterLogic creates the lms AdapterLogic for the server at host:port.
func NewAdapterLogic(host string, port int) *AdapterLogic {
	return &AdapterLogic{host: host, port: port, players: make(map[string]string), lastModes: make(map[string]string)}
}

// PlayerState is the raw LMS player mode/volume snapshot carried on
// LmsPlayerStateChanged, as opposed to the narrower NowPlaying view.
type PlayerState struct {
	Mode   string `json:"mode"`
	Volume any    `json:"volume"`
}

func (a *AdapterLogic) Prefix() string { return "lms" }

func (a *AdapterLogic) Run(ctx context.Context, deps adapter.Dependencies) error {
	if a.host == "" {
		return fmt.Errorf("lms: no server host configured: %w", adapter.ErrNotConfigured)
	}

	a.mu.Lock()
	a.bus = deps.Bus
	a.client = NewClient(a.host, a.port)
	a.mu.Unlock()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	a.pollPlayers(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.pollPlayers(ctx)
		}
	}
}

func (a *AdapterLogic) Stop(ctx context.Context) error { return nil }

func (a *AdapterLogic) pollPlayers(ctx context.Context) {
	a.mu.RLock()
	client, b := a.client, a.bus
	a.mu.RUnlock()
	if client == nil {
		return
	}

	raw, err := client.Request(ctx, "", []any{"players", "0", "999"})
	if err != nil {
		log.Debug().Err(err).Str("host", a.host).Msg("lms: poll players failed")
		return
	}
	var playersResp struct {
		PlayersLoop []map[string]any `json:"players_loop"`
	}
	if err := json.Unmarshal(raw, &playersResp); err != nil {
		log.Warn().Err(err).Msg("lms: malformed players response")
		return
	}

	for _, p := range playersResp.PlayersLoop {
		playerID, _ := p["playerid"].(string)
		if playerID == "" {
			continue
		}
		zoneID := "lms:" + playerID
		name, _ := p["name"].(string)

		a.mu.Lock()
		a.players[playerID] = zoneID
		a.mu.Unlock()

		b.Publish(zone.DiscoveredEvent(zone.Zone{
			ZoneID:   zoneID,
			ZoneName: name,
		}))

		a.pollStatus(ctx, client, b, playerID, zoneID)
	}
}

func (a *AdapterLogic) pollStatus(ctx context.Context, client *Client, b *bus.Bus, playerID, zoneID string) {
	raw, err := client.Request(ctx, playerID, []any{"status", "-", 1, "tags:al"})
	if err != nil {
		log.Debug().Err(err).Str("player", playerID).Msg("lms: poll status failed")
		return
	}
	var status struct {
		Mode        string  `json:"mode"`
		Time        float64 `json:"time"`
		MixerVolume any     `json:"mixer volume"`
		PlaylistLoop []struct {
			Title  string `json:"title"`
			Artist string `json:"artist"`
			Album  string `json:"album"`
			Duration float64 `json:"duration"`
		} `json:"playlist_loop"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("lms: malformed status response")
		return
	}

	a.mu.Lock()
	modeChanged := a.lastModes[playerID] != status.Mode
	a.lastModes[playerID] = status.Mode
	a.mu.Unlock()

	if modeChanged {
		b.Publish(bus.Event{
			Kind:    bus.KindLmsPlayerStateChange,
			ZoneID:  zoneID,
			Prefix:  "lms",
			Payload: PlayerState{Mode: status.Mode, Volume: status.MixerVolume},
			Time:    time.Now(),
		})
	}

	np := zone.NowPlaying{
		ZoneID:      zoneID,
		IsPlaying:   status.Mode == "play",
		SeekSeconds: status.Time,
	}
	if len(status.PlaylistLoop) > 0 {
		track := status.PlaylistLoop[0]
		np.Title = track.Title
		np.Artist = track.Artist
		np.Album = track.Album
		np.LengthSeconds = track.Duration
	}
	b.Publish(zone.NowPlayingEvent(zoneID, np))
}

func (a *AdapterLogic) GetZones(ctx context.Context) ([]zone.Zone, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]zone.Zone, 0, len(a.players))
	for _, zoneID := range a.players {
		out = append(out, zone.Zone{ZoneID: zoneID})
	}
	return out, nil
}

func (a *AdapterLogic) GetNowPlaying(ctx context.Context, zoneID string) (zone.NowPlaying, error) {
	return zone.NowPlaying{}, fmt.Errorf("lms: %q: %w", zoneID, adapter.ErrNotFound)
}

func (a *AdapterLogic) playerIDFor(zoneID string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for playerID, zid := range a.players {
		if zid == zoneID {
			return playerID, nil
		}
	}
	return "", fmt.Errorf("lms: %q: %w", zoneID, adapter.ErrNotFound)
}

// Control maps a generic adapter.Action onto the corresponding slim
// command for the player owning zoneID.
func (a *AdapterLogic) Control(ctx context.Context, zoneID string, action adapter.Action, value float64, hasValue bool) error {
	playerID, err := a.playerIDFor(zoneID)
	if err != nil {
		return err
	}

	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return adapter.ErrNotConnected
	}

	var cmd []any
	switch action {
	case adapter.ActionPlayPause:
		cmd = []any{"pause"}
	case adapter.ActionPlay:
		cmd = []any{"play"}
	case adapter.ActionPause:
		cmd = []any{"pause", 1}
	case adapter.ActionStop:
		cmd = []any{"stop"}
	case adapter.ActionNext:
		cmd = []any{"playlist", "index", "+1"}
	case adapter.ActionPrevious:
		cmd = []any{"playlist", "index", "-1"}
	case adapter.ActionVolAbs:
		if !hasValue {
			return fmt.Errorf("lms: vol_abs requires a value: %w", adapter.ErrUnsupported)
		}
		cmd = []any{"mixer", "volume", value}
	case adapter.ActionVolRel:
		if !hasValue {
			return fmt.Errorf("lms: vol_rel requires a value: %w", adapter.ErrUnsupported)
		}
		sign := "+"
		if value < 0 {
			sign = ""
		}
		cmd = []any{"mixer", "volume", fmt.Sprintf("%s%g", sign, value)}
	case adapter.ActionSeek:
		if !hasValue {
			return fmt.Errorf("lms: seek requires a value: %w", adapter.ErrUnsupported)
		}
		cmd = []any{"time", value}
	default:
		return fmt.Errorf("lms: action %q: %w", action, adapter.ErrUnsupported)
	}

	_, err = client.Request(ctx, playerID, cmd)
	return err
}
