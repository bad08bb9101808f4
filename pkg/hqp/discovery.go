package hqp

import (
	"context"
	"fmt"
	"net"
	"time"
)

const (
	discoveryGroup        = "239.192.0.199:4321"
	defaultDiscoveryWindow = 3 * time.Second
)

// DiscoveredInstance is one deduplicated reply to the UDP multicast
// discovery probe, keyed by the replying host's source IP.
type DiscoveredInstance struct {
	Host    string
	Name    string
	Version string
	Product string
}

// Discover sends the multicast discovery probe and collects replies
// for window (defaulting to 3s if <= 0), returning the deduplicated
// set of instances keyed by host.
func Discover(ctx context.Context, window time.Duration) ([]DiscoveredInstance, error) {
	if window <= 0 {
		window = defaultDiscoveryWindow
	}

	groupAddr, err := net.ResolveUDPAddr("udp", discoveryGroup)
	if err != nil {
		return nil, fmt.Errorf("hqp: resolve discovery group: %w", err)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("hqp: open discovery socket: %w", err)
	}
	defer conn.Close()

	probe := append(buildDiscoverProbe(), '\n')
	if _, err := conn.WriteToUDP(probe, groupAddr); err != nil {
		return nil, fmt.Errorf("hqp: send discovery probe: %w", err)
	}

	deadline := time.Now().Add(window)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("hqp: set discovery read deadline: %w", err)
	}

	seen := make(map[string]DiscoveredInstance)
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			break
		}
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			break // read deadline elapsed, or socket closed
		}
		d, perr := decodeLine(buf[:n])
		if perr != nil {
			continue // noise on the multicast group; ignore
		}
		if d.XMLName.Local != "discover" {
			continue
		}
		host := raddr.IP.String()
		seen[host] = DiscoveredInstance{
			Host:    host,
			Name:    d.attrString("name", ""),
			Version: d.attrString("version", ""),
			Product: d.attrString("product", ""),
		}
	}

	out := make([]DiscoveredInstance, 0, len(seen))
	for _, inst := range seen {
		out = append(out, inst)
	}
	return out, nil
}

func buildDiscoverProbe() []byte {
	return []byte(`<?xml version="1.0"?><discover>hqplayer</discover>`)
}
