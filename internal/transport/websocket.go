package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"hapticsync/internal/haptic"
	applog "hapticsync/internal/log"
)

// wsMessage is the JSON envelope sent to connected clients. Vibration
// messages carry a pattern for the client to replay (e.g. via
// navigator.vibrate); analysis messages carry the per-tick result.
type wsMessage struct {
	Type    string             `json:"type"`
	Pattern []haptic.PulsePair `json:"pattern,omitempty"`
	Data    any                `json:"data,omitempty"`
}

// WebSocket broadcasts vibration commands and analysis results to connected
// clients. It doubles as a haptic.Actuator: a browser client vibrates the
// device it runs on, so triggering is a broadcast and acknowledgment is the
// completed write.
type WebSocket struct {
	listener  net.Listener
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	server    *http.Server
}

var _ Transport = (*WebSocket)(nil)
var _ haptic.Actuator = (*WebSocket)(nil)

// NewWebSocket creates the transport and starts its HTTP server on addr.
// The listener is bound before returning so bind failures surface here.
// Clients connect to /haptic.
func NewWebSocket(addr string) (*WebSocket, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	t := &WebSocket{
		listener: listener,
		clients:  make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local tool, no origin restrictions
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/haptic", t.handleWebSocket)
	t.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("transport: WebSocket server listening on %s", listener.Addr())
		if err := t.server.Serve(listener); err != http.ErrServerClosed {
			applog.Errorf("transport: WebSocket server error: %v", err)
		}
	}()

	return t, nil
}

// Addr returns the bound listen address, e.g. for logging or tests when the
// configured port was 0.
func (t *WebSocket) Addr() string { return t.listener.Addr().String() }

// Clients returns the number of currently connected clients.
func (t *WebSocket) Clients() int {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()
	return len(t.clients)
}

// Send broadcasts an analysis payload to all connected clients.
func (t *WebSocket) Send(data any) error {
	t.broadcast(wsMessage{Type: "analysis", Data: data})
	return nil
}

// Trigger broadcasts a vibration pattern. Implements haptic.Actuator; the
// write completing is the acknowledgment the scheduler times.
func (t *WebSocket) Trigger(pattern []haptic.PulsePair) bool {
	t.broadcast(wsMessage{Type: "vibrate", Pattern: pattern})
	return true
}

// Stop tells clients to halt any ongoing vibration.
func (t *WebSocket) Stop() {
	t.broadcast(wsMessage{Type: "stop"})
}

// IsSupported reports true: the transport accepts patterns whether or not a
// client is currently connected.
func (t *WebSocket) IsSupported() bool { return true }

// Close shuts down the server and drops all clients.
func (t *WebSocket) Close() error {
	t.clientsMu.Lock()
	for conn := range t.clients {
		conn.Close()
	}
	t.clients = make(map[*websocket.Conn]bool)
	t.clientsMu.Unlock()
	return t.server.Close()
}

func (t *WebSocket) broadcast(msg wsMessage) {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()

	for conn := range t.clients {
		if err := conn.WriteJSON(msg); err != nil {
			applog.Debugf("transport: dropping WebSocket client: %v", err)
			conn.Close()
			delete(t.clients, conn)
		}
	}
}

func (t *WebSocket) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("transport: WebSocket upgrade error: %v", err)
		return
	}

	t.clientsMu.Lock()
	t.clients[conn] = true
	count := len(t.clients)
	t.clientsMu.Unlock()
	applog.Infof("transport: WebSocket client connected (total: %d)", count)

	// Reader goroutine exists only to observe disconnects; clients do not
	// send application data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		t.clientsMu.Lock()
		delete(t.clients, conn)
		t.clientsMu.Unlock()
		conn.Close()
		applog.Infof("transport: WebSocket client disconnected")
	}()
}
