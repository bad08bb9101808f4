package lms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func startFakeLMS(t *testing.T, handler func(req Request) Response) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("server: decode request: %v", err)
		}
		resp := handler(req)
		resp.ID = req.ID
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("server: encode response: %v", err)
		}
	}))
}

func clientForServer(srv *httptest.Server) *Client {
	host, portStr, _ := parseHostPort(srv.URL)
	port, _ := strconv.Atoi(portStr)
	return NewClient(host, port)
}

// parseHostPort strips the scheme from an httptest.Server URL like
// "http://127.0.0.1:54321" and splits host/port.
func parseHostPort(url string) (string, string, error) {
	const prefix = "http://"
	trimmed := url[len(prefix):]
	for i := len(trimmed) - 1; i >= 0; i-- {
		if trimmed[i] == ':' {
			return trimmed[:i], trimmed[i+1:], nil
		}
	}
	return trimmed, "", nil
}

func TestClientRequestReturnsResult(t *testing.T) {
	srv := startFakeLMS(t, func(req Request) Response {
		return Response{Result: json.RawMessage(`{"count":2}`)}
	})
	defer srv.Close()

	c := clientForServer(srv)
	result, err := c.Request(context.Background(), "", []any{"players", "0", "999"})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	var got struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2", got.Count)
	}
}

func TestClientRequestSurfacesRPCError(t *testing.T) {
	srv := startFakeLMS(t, func(req Request) Response {
		return Response{Error: &Error{Code: 1, Message: "bad command"}}
	})
	defer srv.Close()

	c := clientForServer(srv)
	_, err := c.Request(context.Background(), "", []any{"bogus"})
	if err == nil {
		t.Fatal("Request() error = nil, want RPC error surfaced")
	}
}

func TestClientRequestIncludesPlayerIDAndCommand(t *testing.T) {
	var gotParams []any
	srv := startFakeLMS(t, func(req Request) Response {
		gotParams = req.Params
		return Response{Result: json.RawMessage(`{}`)}
	})
	defer srv.Close()

	c := clientForServer(srv)
	if _, err := c.Request(context.Background(), "aa:bb:cc", []any{"pause", 1}); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if len(gotParams) != 2 || gotParams[0] != "aa:bb:cc" {
		t.Fatalf("Params = %v, want [aa:bb:cc, [pause 1]]", gotParams)
	}
}
