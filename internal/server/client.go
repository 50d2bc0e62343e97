// Package server runs one read pump and one write pump per WebSocket
// connection and bridges them to the hub.
package server

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/robflop/chatron-server/internal/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client is one WebSocket connection. The hub knows it by id; send holds
// encoded frames waiting for the write pump.
type Client struct {
	id             chat.ConnID
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
	closeOnce      sync.Once
}

// NewClient applies the hub's read limit to conn and assigns a fresh
// connection ID. A nil conn gives a client without pumps.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(hub.maxMessageSize)
	}

	return &Client{
		id:             chat.ConnID(uuid.NewString()),
		conn:           conn,
		send:           make(chan []byte, hub.sendBufferSize),
		hub:            hub,
		addr:           addr,
		maxMessageSize: hub.maxMessageSize,
	}
}

// ID returns the connection identifier the chat core knows this client by.
func (c *Client) ID() chat.ConnID {
	return c.id
}

// GetSendChan exposes the outbound queue.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// kick closes the socket so the read pump exits and unregisters the client.
func (c *Client) kick() {
	c.closeOnce.Do(func() {
		if c.conn == nil {
			return
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.hub.log.Warn("Error closing connection", "conn", c.id, "error", err)
		}
	})
}

// setupReadConnection arms the read deadline and extends it on every pong.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.log.Warn("Error setting initial read deadline", "addr", c.addr, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.hub.log.Warn("Error setting read deadline in pong handler", "addr", c.addr, "error", err)
		}
		return nil
	})
}

// handleReadError classifies a read failure for the log. Any non-nil error
// ends the read loop.
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}
	log := c.hub.log.With("conn", c.id, "addr", c.addr)

	if errors.Is(err, websocket.ErrReadLimit) {
		log.Warn("Message exceeded maximum size", "limit", c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		log.Info("Client disconnected", "reason", err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		log.Info("Client connection closed", "reason", err)
		return true
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		log.Warn("Unexpected WebSocket error", "error", err)
		return true
	}

	log.Warn("WebSocket read error", "error", err)
	return true
}

// processMessage decodes a raw frame and queues the event on the hub.
// Malformed frames are logged and dropped.
func (c *Client) processMessage(rawMessage []byte) bool {
	evt, err := decodeEvent(rawMessage)
	if err != nil {
		c.hub.log.Warn("Invalid message", "conn", c.id, "addr", c.addr, "error", err)
		return false
	}

	c.hub.log.Debug("Received event", "conn", c.id, "event", evt.Name())
	return c.hub.submit(c, evt)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.kick()
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if c.handleReadError(err) {
			return
		}

		c.processMessage(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.kick()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent handles one queued frame or ping tick. false stops the pump.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// handleMessage writes a frame, or the close message once the queue is closed.
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.hub.log.Warn("Error setting write deadline", "addr", c.addr, "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage always ends the pump.
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.hub.log.Warn("Error writing close message", "addr", c.addr, "error", err)
		}
	}
	return false
}

// writeTextMessage writes a frame holding the message and anything queued
// behind it, one JSON document per line.
func (c *Client) writeTextMessage(message []byte) bool {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		c.hub.log.Warn("Error creating writer", "addr", c.addr, "error", err)
		return false
	}

	if _, err := w.Write(message); err != nil {
		c.hub.log.Warn("Error writing message", "addr", c.addr, "error", err)
		return false
	}

	if !c.writeQueuedMessages(w) {
		return false
	}

	if err := w.Close(); err != nil {
		c.hub.log.Warn("Error closing writer", "addr", c.addr, "error", err)
		return false
	}
	return true
}

// writeQueuedMessages drains what is already queued without waiting for more.
func (c *Client) writeQueuedMessages(w io.Writer) bool {
	n := len(c.send)
	for i := 0; i < n; i++ {
		message, ok := <-c.send
		if !ok {
			return true
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			c.hub.log.Warn("Error writing newline", "addr", c.addr, "error", err)
			return false
		}
		if _, err := w.Write(message); err != nil {
			c.hub.log.Warn("Error writing queued message", "addr", c.addr, "error", err)
			return false
		}
	}
	return true
}

// handlePing keeps the peer's pong deadline moving.
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.hub.log.Warn("Error setting write deadline for ping", "addr", c.addr, "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.hub.log.Warn("Error writing ping message", "addr", c.addr, "error", err)
		return false
	}
	return true
}
