// Package testhelpers provides common utilities for testing the chatron server.
//
// It wraps WebSocket dialing and the JSON envelope protocol so tests can send
// events and read replies one envelope at a time, even when the server
// coalesces several envelopes into one frame.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultOrigin is accepted by the default server configuration.
const DefaultOrigin = "http://localhost:8080"

// Envelope is one decoded protocol frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode unmarshals the envelope data into v.
func (e Envelope) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, v); err != nil {
		t.Fatalf("Failed to decode %s data %s: %v", e.Event, e.Data, err)
	}
}

// Client is a protocol-aware WebSocket test client.
type Client struct {
	Conn    *websocket.Conn
	pending []Envelope
}

// WebSocketURL converts an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket creates a WebSocket connection to the specified URL
// presenting the given Origin header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// Dial connects with DefaultOrigin and fails the test on error.
func Dial(t *testing.T, url string) *Client {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, DefaultOrigin)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	return &Client{Conn: conn}
}

// Send writes one event envelope.
func (c *Client) Send(t *testing.T, event string, data any) {
	t.Helper()
	if err := c.Conn.WriteJSON(map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// Next returns the next envelope, reading a new frame when none is pending.
func (c *Client) Next(timeout time.Duration) (Envelope, error) {
	if len(c.pending) == 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return Envelope{}, err
		}
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			return Envelope{}, err
		}
		for _, line := range bytes.Split(frame, []byte{'\n'}) {
			var env Envelope
			if err := json.Unmarshal(line, &env); err != nil {
				return Envelope{}, err
			}
			c.pending = append(c.pending, env)
		}
	}
	env := c.pending[0]
	c.pending = c.pending[1:]
	return env, nil
}

// Expect reads the next envelope and fails unless it carries event.
func (c *Client) Expect(t *testing.T, event string) Envelope {
	t.Helper()
	env, err := c.Next(2 * time.Second)
	if err != nil {
		t.Fatalf("Expected %s, read failed: %v", event, err)
	}
	if env.Event != event {
		t.Fatalf("Expected %s, got %s: %s", event, env.Event, env.Data)
	}
	return env
}

// Close gracefully closes the WebSocket connection.
func (c *Client) Close() error {
	err := c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return c.Conn.Close()
	}
	return c.Conn.Close()
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}
