package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"git.home.luguber.info/inful/pub/internal/logfields"
	"git.home.luguber.info/inful/pub/internal/metrics"
)

const (
	// LiveReloadPath is the endpoint browsers connect to.
	LiveReloadPath = "/_pub/livereload"
	// LiveReloadProtocol is the websocket subprotocol a client must offer.
	LiveReloadProtocol = "pub-livereload"

	reloadRetries    = 5
	reloadBackoffMS  = 1000
	lrWriteWait      = 10 * time.Second
	lrPongWait       = 60 * time.Second
	lrPingEvery      = (lrPongWait * 9) / 10
	lrClientQueueLen = 8
)

// Message is sent to live-reload clients.
type Message struct {
	Type string `json:"type"`
}

// ReloadMessage tells browsers to reload the page.
var ReloadMessage = Message{Type: "reload"}

// LiveReloadScript opens the live-reload connection and reloads the page when
// told to. Failed connections are retried a bounded number of times.
var LiveReloadScript = fmt.Sprintf(`(() => {
  if (window.__PUB_LR__) return;
  window.__PUB_LR__ = true;
  let attempts = 0;
  const connect = () => {
    const proto = location.protocol === "https:" ? "wss:" : "ws:";
    const ws = new WebSocket(proto + "//" + location.host + %q, %q);
    ws.onopen = () => { attempts = 0; };
    ws.onmessage = (e) => {
      try { if (JSON.parse(e.data).type === "reload") location.reload(); } catch (_) {}
    };
    ws.onclose = () => {
      if (++attempts <= %d) setTimeout(connect, %d);
    };
  };
  connect();
})();`, LiveReloadPath, LiveReloadProtocol, reloadRetries, reloadBackoffMS)

// Hub tracks live-reload websocket clients and broadcasts to them.
type Hub struct {
	mu       sync.Mutex
	nextID   int
	clients  map[int]*lrClient
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
	recorder metrics.Recorder
}

type lrClient struct {
	id   int
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *lrClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger, recorder metrics.Recorder) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: map[int]*lrClient{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{LiveReloadProtocol},
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:   logger,
		recorder: metrics.OrNoop(recorder),
	}
}

// ServeHTTP upgrades the request and registers the client. Connections that do
// not negotiate LiveReloadProtocol are closed right after the handshake.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Live reload handshake failed", logfields.Error(err))
		return
	}
	if conn.Subprotocol() != LiveReloadProtocol {
		msg := websocket.FormatCloseMessage(websocket.CloseProtocolError, "unsupported subprotocol")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(lrWriteWait))
		_ = conn.Close()
		h.logger.Debug("Live reload client rejected", logfields.Addr(r.RemoteAddr))
		return
	}

	c := &lrClient{conn: conn, send: make(chan []byte, lrClientQueueLen), done: make(chan struct{})}
	if !h.add(c) {
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) add(c *lrClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.id = h.nextID
	h.nextID++
	h.clients[c.id] = c
	h.recorder.SetLiveReloadClients(len(h.clients))
	return true
}

func (h *Hub) remove(c *lrClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.recorder.SetLiveReloadClients(len(h.clients))
	}
	h.mu.Unlock()
	c.stop()
}

// readPump consumes client frames so control messages are processed and a
// closed connection is noticed.
func (h *Hub) readPump(c *lrClient) {
	defer h.remove(c)
	_ = c.conn.SetReadDeadline(time.Now().Add(lrPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(lrPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *lrClient) {
	ticker := time.NewTicker(lrPingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(lrWriteWait))
			return
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(lrWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(lrWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends msg to every connected client and returns how many received
// it. Clients whose queue is full are dropped.
func (h *Hub) Broadcast(msg Message) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Live reload encode failed", logfields.Error(err))
		return 0
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0
	}
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range snapshot {
		select {
		case c.send <- payload:
			sent++
		default:
			h.remove(c)
		}
	}
	h.recorder.IncReloadBroadcast()
	h.logger.Debug("Live reload broadcast", logfields.Clients(sent), slog.Int("dropped", len(snapshot)-sent))
	return sent
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
	h.recorder.SetLiveReloadClients(0)
}
