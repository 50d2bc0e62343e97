// Package server serves the WebSocket endpoint, the health probe and a
// browser test page.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handlers serves the HTTP endpoints for one hub.
type Handlers struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandlers builds the handlers, applying the origin allow-list from cfg.
func NewHandlers(log *slog.Logger, cfg Config, hub *Hub) *Handlers {
	policy := newOriginPolicy(cfg.Sanitize().AllowedOrigins, log)
	return &Handlers{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
		log: log,
	}
}

// WebSocketHandler upgrades the request and hands the new client to the hub,
// which launches its pumps.
func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.hub, r.RemoteAddr)
	if !h.hub.Register(client) {
		h.log.Warn("Hub stopped, refusing connection", "addr", r.RemoteAddr)
		_ = conn.Close()
	}
}

// HealthHandler answers liveness probes with plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "chatron server is running!")
}

// TestPageHandler serves an HTML page that logs in, joins a channel and chats
// over the WebSocket endpoint.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>chatron WebSocket Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
    </style>
</head>
<body>
    <h1>chatron WebSocket Test</h1>

    <div>
        <input type="text" id="username" placeholder="Username">
        <input type="text" id="channel" placeholder="Channel" value="general">
        <button onclick="login()">Login</button>
        <button onclick="logout()">Logout</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>

    <div id="messages"></div>

    <script>
        const messagesDiv = document.getElementById('messages');
        const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(scheme + location.host + '/ws');

        function addLine(text) {
            const line = document.createElement('div');
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function send(event, data) {
            ws.send(JSON.stringify({ event: event, data: data }));
        }

        function channel() {
            return { name: document.getElementById('channel').value };
        }

        function login() {
            send('login', { username: document.getElementById('username').value, channels: [channel()] });
        }

        function logout() {
            send('logout', {});
        }

        function sendMessage() {
            const input = document.getElementById('messageInput');
            send('message', { content: input.value, channel: channel() });
            input.value = '';
        }

        ws.onopen = () => addLine('Connected');
        ws.onclose = () => addLine('Connection closed');
        ws.onmessage = (event) => {
            event.data.split('\n').forEach((frame) => {
                const envelope = JSON.parse(frame);
                const data = envelope.data || {};
                if (data.error) {
                    addLine('[' + envelope.event + '] ' + data.error.type + ': ' + data.error.message);
                } else if (envelope.event === 'message') {
                    addLine('#' + data.channel.name + ' <' + data.author + '> ' + data.content);
                } else {
                    addLine('[' + envelope.event + '] ' + JSON.stringify(data));
                }
            });
        };
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Default().Warn("Error writing HTML response", "error", err)
	}
}
