// Package live pushes preview events to open browser tabs over a websocket
// and stands in for the tooltip widget on the server side: a tab reports
// when the widget script has loaded and receives refresh requests.
package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// Message types exchanged with browser tabs.
const (
	TypeHello          = "hello"
	TypeWidgetReady    = "widget-ready"
	TypeRefreshLinks   = "refresh-links"
	TypeReload         = "reload"
	TypeLanguageChange = "language-change"
	TypeError          = "error"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

// ErrClosed is returned by ServeHTTP after Close.
var ErrClosed = errors.New("live: hub closed")

// Message is the JSON frame sent in both directions.
type Message struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id,omitempty"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	id    string
	conn  *websocket.Conn
	send  chan Message
	ready atomic.Bool
}

// Hub tracks connected tabs. It implements localize.Widget: it is ready
// once any tab has loaded the widget, and RefreshLinks asks every tab to
// re-scan its links.
type Hub struct {
	// OnLanguageChange, when set, is called for every valid language a tab
	// switches to.
	OnLanguageChange func(wowhead.Language)
	// OnClients, when set, is called with the client count after each
	// connect or disconnect.
	OnClients func(int)

	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	wg      sync.WaitGroup
}

// NewHub returns an empty hub. A nil logger uses slog.Default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, clients: make(map[string]*client)}
}

// Ready reports whether any connected tab has loaded the widget.
func (h *Hub) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.ready.Load() {
			return true
		}
	}
	return false
}

// RefreshLinks asks every tab to re-scan its links.
func (h *Hub) RefreshLinks() {
	h.Broadcast(Message{Type: TypeRefreshLinks})
}

// Len returns the number of connected tabs.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues m for every connected tab. Tabs whose queue is full are
// disconnected.
func (h *Hub) Broadcast(m Message) {
	h.broadcast(m, "")
}

func (h *Hub) broadcast(m Message, except string) {
	h.mu.Lock()
	var slow []*client
	for id, c := range h.clients {
		if id == except {
			continue
		}
		select {
		case c.send <- m:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("live: dropping slow client", "client", c.id)
		h.unregister(c)
		c.conn.Close()
	}
}

// ServeHTTP upgrades the request and serves one tab until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live: websocket upgrade", "error", err)
		return
	}

	c := &client{id: uuid.New().String(), conn: conn, send: make(chan Message, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(c)
	}()

	h.reply(c, Message{Type: TypeHello, ClientID: c.id})
	h.readLoop(c)

	h.unregister(c)
	conn.Close()
	<-writerDone
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("live: client connected", "client", c.id, "clients", n)
	if h.OnClients != nil {
		h.OnClients(n)
	}
	return true
}

// unregister removes c and closes its queue. Safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("live: client disconnected", "client", c.id, "clients", n)
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

func (h *Hub) writeLoop(c *client) {
	for m := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(m); err != nil {
			h.logger.Debug("live: websocket write", "client", c.id, "error", err)
			c.conn.Close()
			// Drain so broadcasters never block on a dead client.
			for range c.send {
			}
			return
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live: websocket read", "client", c.id, "error", err)
			}
			return
		}

		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			h.reply(c, Message{Type: TypeError, Content: "invalid message format"})
			continue
		}

		switch m.Type {
		case TypeWidgetReady:
			c.ready.Store(true)
		case TypeLanguageChange:
			if !wowhead.IsLanguage(m.Language) {
				h.reply(c, Message{Type: TypeError, Content: "unknown language: " + m.Language})
				continue
			}
			if h.OnLanguageChange != nil {
				h.OnLanguageChange(wowhead.Language(m.Language))
			}
			h.broadcast(Message{Type: TypeLanguageChange, Language: m.Language}, c.id)
		default:
			h.reply(c, Message{Type: TypeError, Content: "unknown message type: " + m.Type})
		}
	}
}

func (h *Hub) reply(c *client, m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- m:
	default:
	}
}

// Close disconnects every tab, rejects new ones and waits for all
// connection goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
		c.conn.Close()
	}
	h.wg.Wait()
}
