package hqp

import "errors"

var (
	// ErrNotConnected indicates a request was attempted without a live
	// connection and no reconnect was possible at the time.
	ErrNotConnected = errors.New("hqp: not connected")
	// ErrDisconnected indicates the socket closed while a request was
	// in flight or queued.
	ErrDisconnected = errors.New("hqp: disconnected")
	// ErrConnectTimeout indicates the connect attempt failed: it wraps
	// every dial failure, whether the 5-second timeout elapsed or the
	// dial was refused or otherwise errored.
	ErrConnectTimeout = errors.New("hqp: connect timeout")
	// ErrRequestTimeout indicates the 10-second per-request deadline elapsed.
	ErrRequestTimeout = errors.New("hqp: request timeout")
	// ErrProtocolMalformed indicates a response line failed to parse as XML.
	ErrProtocolMalformed = errors.New("hqp: malformed response")
	// ErrUnknownListItem indicates a Set* call referenced a name/Hz value
	// absent from the client's cached enumeration.
	ErrUnknownListItem = errors.New("hqp: unknown list item")
)
