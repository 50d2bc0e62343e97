// Package server coordinates client registration, event dispatch, and
// connection cleanup for the chatron WebSocket system via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robflop/chatron-server/internal/chat"
)

// inbound is one decoded event waiting for the hub loop.
type inbound struct {
	client *Client
	event  chat.Event
}

// Hub owns every WebSocket client and the chat dispatcher. Run is the only
// goroutine that touches the dispatcher, so each event is fully processed
// before the next one starts.
type Hub struct {
	clients        map[chat.ConnID]*Client
	inbound        chan inbound
	register       chan *Client
	unregister     chan *Client
	dispatcher     *chat.Dispatcher
	maxMessageSize int64
	sendBufferSize int
	mutex          sync.RWMutex
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	log            *slog.Logger
}

// NewHub creates and initializes a new Hub instance. Options are handed to
// the chat dispatcher.
func NewHub(log *slog.Logger, cfg Config, opts ...chat.Option) *Hub {
	cfg = cfg.Sanitize()
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:        make(map[chat.ConnID]*Client),
		inbound:        make(chan inbound),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		maxMessageSize: cfg.MaxMessageSize,
		sendBufferSize: cfg.SendBufferSize,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		log:            log,
	}
	h.dispatcher = chat.NewDispatcher(log, h, opts...)
	return h
}

// Register hands a client to the hub loop. It returns false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) submit(client *Client, evt chat.Event) bool {
	select {
	case h.inbound <- inbound{client: client, event: evt}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Send implements chat.Sender. It never blocks: a client whose queue is full
// is dropped and its disconnect runs once its read pump notices.
func (h *Hub) Send(conn chat.ConnID, payload chat.Payload) {
	message, err := encodePayload(payload)
	if err != nil {
		h.log.Error("Failed to encode payload", "conn", conn, "event", payload.Name(), "error", err)
		return
	}

	h.mutex.RLock()
	client, exists := h.clients[conn]
	h.mutex.RUnlock()
	if !exists {
		h.log.Debug("Dropping payload for unknown connection", "conn", conn, "event", payload.Name())
		return
	}

	if !h.safeSend(client, message) {
		h.log.Warn("Send buffer full, dropping client", "conn", conn, "addr", client.addr)
		client.kick()
	}
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration and inbound events. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case in := <-h.inbound:
			h.mutex.RLock()
			_, exists := h.clients[in.client.id]
			h.mutex.RUnlock()
			if !exists {
				continue
			}
			h.dispatcher.Handle(in.client.id, in.event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.dispatcher.Connect(client.id)
	h.log.Info("Client registered", "conn", client.id, "addr", client.addr, "clients", clientCount)

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// removeClient runs the disconnect cascade before the client's queue closes.
func (h *Hub) removeClient(client *Client) {
	h.mutex.RLock()
	_, exists := h.clients[client.id]
	h.mutex.RUnlock()
	if !exists {
		return
	}

	h.dispatcher.Disconnect(client.id)

	h.mutex.Lock()
	delete(h.clients, client.id)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	close(client.send)
	stats := h.dispatcher.Stats()
	h.log.Info("Client unregistered", "conn", client.id, "addr", client.addr,
		"clients", clientCount, "users", stats.Users, "channels", stats.Channels)
}

// shutdownClients disconnects every client so their channels are cleaned up,
// then closes the sockets.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		h.removeClient(client)
		client.kick()
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown stops the loop, which disconnects every client, then waits up to
// timeout for the pumps to exit.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
