package hqp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// connState is the connection lifecycle state machine of §4.5.6:
// Idle -> Connecting -> Connected -> Draining -> Idle, with Failed a
// sink state reachable only from Connecting.
type connState int32

const (
	stateIdle connState = iota
	stateConnecting
	stateConnected
	stateDraining
	stateFailed
)

func (s connState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateDraining:
		return "draining"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	connectTimeout = 5 * time.Second
	requestTimeout = 10 * time.Second
)

// StateChange is delivered to a Client's optional observer whenever
// the connection lifecycle transitions between Connected and
// disconnected (Idle/Draining/Failed). Adapter-level code observes
// this to publish AdapterConnected/AdapterDisconnected on the bus.
type StateChange struct {
	Connected bool
	Reason    string
}

// Client is a single DSP-control-port TCP connection (C5's transport
// layer). It serializes requests behind a single mutex, so at most one
// request is outstanding at a time; waiting requests proceed in the
// order sync.Mutex hands out the lock, which is not guaranteed to be
// the order they were submitted in. It also
// shares a single in-progress connect attempt across concurrent
// callers via singleflight, so connection storms never thunder-herd
// the target.
type Client struct {
	addr       string
	instanceID uuid.UUID
	onState    func(StateChange)

	connectGroup singleflight.Group

	stateMu sync.Mutex
	state   connState
	conn    net.Conn
	reader  *bufio.Reader

	reqMu sync.Mutex // serializes the request/response round trip

	cacheMu     sync.RWMutex
	modes       []ListItem
	filters     []ListItem
	shapers     []ListItem
	rates       []RateItem
	volumeRange VolumeRange
}

// NewClient creates a Client for the DSP instance at host:4321.
// onState, if non-nil, is invoked (from the connecting goroutine)
// whenever the connection transitions to or away from Connected.
func NewClient(host string, onState func(StateChange)) *Client {
	return &Client{
		addr:       net.JoinHostPort(host, "4321"),
		instanceID: uuid.New(),
		onState:    onState,
	}
}

// ConnState returns the client's current connection lifecycle state.
func (c *Client) ConnState() connState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// ensureConnected connects if not already connected, sharing a single
// in-flight connect attempt across concurrent callers.
func (c *Client) ensureConnected(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state == stateConnected {
		c.stateMu.Unlock()
		return nil
	}
	c.stateMu.Unlock()

	_, err, _ := c.connectGroup.Do("connect", func() (any, error) {
		return nil, c.connect(ctx)
	})
	return err
}

func (c *Client) connect(ctx context.Context) error {
	c.stateMu.Lock()
	c.state = stateConnecting
	c.stateMu.Unlock()

	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.stateMu.Lock()
		c.state = stateFailed
		c.stateMu.Unlock()
		return fmt.Errorf("hqp: connect %s: %w", c.addr, ErrConnectTimeout)
	}

	c.stateMu.Lock()
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.state = stateConnected
	c.stateMu.Unlock()

	if c.onState != nil {
		c.onState(StateChange{Connected: true})
	}

	if err := c.refreshCache(ctx); err != nil {
		log.Warn().Err(err).Str("addr", c.addr).Msg("hqp: cache refresh after connect failed")
	}

	return nil
}

// Close drains the connection: rejects the in-flight/queued request
// with ErrDisconnected (by virtue of the read/write failing once the
// socket is closed), closes the socket, and publishes the
// disconnected state via onState.
func (c *Client) Close() error {
	c.stateMu.Lock()
	if c.state != stateConnected {
		c.stateMu.Unlock()
		return nil
	}
	c.state = stateDraining
	conn := c.conn
	c.stateMu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}

	c.stateMu.Lock()
	c.state = stateIdle
	c.conn = nil
	c.reader = nil
	c.stateMu.Unlock()

	if c.onState != nil {
		c.onState(StateChange{Connected: false, Reason: "closed"})
	}
	return err
}

// roundTrip writes a single request document and reads back exactly
// one response document, under the per-request timeout. Callers
// needing a multi-document list response use listRoundTrip instead.
func (c *Client) roundTrip(ctx context.Context, command string, attrs map[string]string) (doc, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return doc{}, err
	}

	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	c.stateMu.Lock()
	conn, reader, state := c.conn, c.reader, c.state
	c.stateMu.Unlock()
	if state != stateConnected || conn == nil {
		return doc{}, ErrDisconnected
	}

	deadline := time.Now().Add(requestTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return doc{}, fmt.Errorf("hqp: set deadline: %w", ErrDisconnected)
	}

	if _, err := conn.Write(buildRequest(command, attrs)); err != nil {
		c.handleIOError("write failed")
		return doc{}, fmt.Errorf("hqp: write %s: %w", command, ErrDisconnected)
	}

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			c.handleIOError("read failed")
			if isTimeout(err) {
				return doc{}, fmt.Errorf("hqp: %s: %w", command, ErrRequestTimeout)
			}
			return doc{}, fmt.Errorf("hqp: read %s: %w", command, ErrDisconnected)
		}

		d, perr := decodeLine(line)
		if perr != nil {
			log.Error().Err(perr).Str("command", command).Msg("hqp: discarding malformed response line")
			continue
		}
		return d, nil
	}
}

// listRoundTrip writes a single list-returning request and collects
// its items, handling both response shapes from §4.5.2: a single
// self-contained document whose root carries the items as children,
// or a streaming opening document, N item documents, and a closing
// document.
func (c *Client) listRoundTrip(ctx context.Context, command, listTag, itemTag string) ([]doc, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	c.stateMu.Lock()
	conn, reader, state := c.conn, c.reader, c.state
	c.stateMu.Unlock()
	if state != stateConnected || conn == nil {
		return nil, ErrDisconnected
	}

	deadline := time.Now().Add(requestTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("hqp: set deadline: %w", ErrDisconnected)
	}

	if _, err := conn.Write(buildRequest(command, nil)); err != nil {
		c.handleIOError("write failed")
		return nil, fmt.Errorf("hqp: write %s: %w", command, ErrDisconnected)
	}

	first, bare, err := c.readDoc(reader, command)
	if err != nil {
		return nil, err
	}

	if !bare {
		// Case (a): single self-contained document; its children (if
		// any) are the items.
		return first.Items, nil
	}

	// Case (b): a bare opening tag on its own line — its name is the
	// command name (e.g. "GetFilters"), not the plural listTag. Read
	// item documents until the matching closing tag (or a document
	// named listTag) arrives.
	openTag := first.XMLName.Local

	var items []doc
	for {
		d, _, err := c.readDoc(reader, command)
		if err != nil {
			return nil, err
		}
		if d.XMLName.Local == openTag || d.XMLName.Local == listTag {
			return items, nil
		}
		if d.XMLName.Local != itemTag {
			log.Warn().Str("command", command).Str("got", d.XMLName.Local).
				Msg("hqp: discarding unexpected element in streaming list response")
			continue
		}
		items = append(items, d)
	}
}

// readDoc reads the next response document, discarding malformed
// lines. A line holding only an opening or closing tag (e.g.
// "<GetFilters>" or "</GetFilters>", optionally after an XML
// declaration) does not parse on its own; it is returned as a doc
// carrying just that tag name, with bare set to true.
func (c *Client) readDoc(reader *bufio.Reader, command string) (doc, bool, error) {
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			c.handleIOError("read failed")
			if isTimeout(err) {
				return doc{}, false, fmt.Errorf("hqp: %s: %w", command, ErrRequestTimeout)
			}
			return doc{}, false, fmt.Errorf("hqp: read %s: %w", command, ErrDisconnected)
		}
		d, perr := decodeLine(line)
		if perr != nil {
			t := bytes.TrimSpace(line)
			if i := bytes.Index(t, []byte("?>")); bytes.HasPrefix(t, []byte("<?")) && i >= 0 {
				t = bytes.TrimSpace(t[i+2:])
			}
			if n := len(t); n > 2 && t[0] == '<' && t[n-1] == '>' && t[n-2] != '/' && !bytes.ContainsAny(t[1:n-1], "<>") {
				if f := strings.Fields(strings.TrimPrefix(string(t[1:n-1]), "/")); len(f) > 0 {
					return doc{XMLName: xml.Name{Local: f[0]}}, true, nil
				}
			}
			log.Error().Err(perr).Str("command", command).Msg("hqp: discarding malformed response line")
			continue
		}
		return d, false, nil
	}
}

// handleIOError marks the connection disconnected and notifies the
// observer. Called with reqMu held; stateMu is acquired internally.
func (c *Client) handleIOError(reason string) {
	c.stateMu.Lock()
	if c.state != stateConnected {
		c.stateMu.Unlock()
		return
	}
	c.state = stateIdle
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
	c.stateMu.Unlock()

	if c.onState != nil {
		c.onState(StateChange{Connected: false, Reason: reason})
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
