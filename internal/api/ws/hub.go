package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DannyMang/theta/internal/domain/tab"
	"github.com/DannyMang/theta/internal/infrastructure/logging"
	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
	"github.com/DannyMang/theta/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

const (
	TypeSnapshot = "snapshot"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeError    = "error"
)

// Message is the envelope for everything sent over the stream
type Message struct {
	Type        string     `json:"type"`
	TabID       string     `json:"tab_id,omitempty"`
	Tab         *tab.Tab   `json:"tab,omitempty"`
	Tabs        []*tab.Tab `json:"tabs,omitempty"`
	ActiveTabID string     `json:"active_tab_id,omitempty"`
	Message     string     `json:"message,omitempty"`
	Timestamp   int64      `json:"timestamp"`
}

type client struct {
	id   id.ClientID
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans tab events out to every connected client
type Hub struct {
	tabs     *tab.Manager
	upgrader websocket.Upgrader
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu      sync.RWMutex
	clients map[id.ClientID]*client
	closed  bool
}

// NewHub creates a hub and subscribes it to tab changes
func NewHub(tabs *tab.Manager, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Hub{
		tabs: tabs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.Named("stream"),
		clients: make(map[id.ClientID]*client),
	}
	tabs.OnChange(h.publish)
	return h
}

// WithMetrics adds stream metrics
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades the request and serves the client until it
// disconnects or the hub closes.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   id.NewClientID(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.register(cl) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	h.logger.Debug("client connected", zap.String("client_id", cl.id.String()))

	go h.writePump(cl)
	h.enqueue(cl, h.snapshot())
	h.readPump(cl)
}

// Close disconnects every client and stops accepting new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[id.ClientID]*client)
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
		h.clientGone()
	}
}

func (h *Hub) register(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl.id] = cl
	if h.metrics != nil {
		h.metrics.IncStreamClients()
	}
	return true
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl.id]
	delete(h.clients, cl.id)
	h.mu.Unlock()

	if ok {
		cl.close()
		h.clientGone()
		h.logger.Debug("client disconnected", zap.String("client_id", cl.id.String()))
	}
}

func (h *Hub) clientGone() {
	if h.metrics != nil {
		h.metrics.DecStreamClients()
	}
}

func (h *Hub) publish(ev tab.Event) {
	h.broadcast(Message{
		Type:        string(ev.Type),
		TabID:       ev.TabID,
		Tab:         ev.Tab,
		ActiveTabID: ev.ActiveTabID,
		Timestamp:   time.Now().Unix(),
	})
}

func (h *Hub) broadcast(msg Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode stream message", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, cl := range h.clients {
		select {
		case cl.send <- data:
			h.recordMessage("out", msg.Type)
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.logger.Warn("dropping slow client", zap.String("client_id", cl.id.String()))
		h.unregister(cl)
	}
}

// enqueue sends msg to one client, dropping it if the client is gone
func (h *Hub) enqueue(cl *client, msg Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode stream message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[cl.id]; !ok {
		return
	}
	select {
	case cl.send <- data:
		h.recordMessage("out", msg.Type)
	default:
	}
}

func (h *Hub) snapshot() Message {
	active, _ := h.tabs.ActiveTabID()
	return Message{
		Type:        TypeSnapshot,
		Tabs:        h.tabs.GetAllTabs(),
		ActiveTabID: active,
		Timestamp:   time.Now().Unix(),
	}
}

func (h *Hub) readPump(cl *client) {
	defer h.unregister(cl)

	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("client_id", cl.id.String()), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.enqueue(cl, Message{Type: TypeError, Message: "invalid message", Timestamp: time.Now().Unix()})
			continue
		}
		h.recordMessage("in", msg.Type)

		switch msg.Type {
		case TypePing:
			h.enqueue(cl, Message{Type: TypePong, Timestamp: time.Now().Unix()})
		case TypeSnapshot:
			h.enqueue(cl, h.snapshot())
		default:
			h.enqueue(cl, Message{Type: TypeError, Message: "unknown message type", Timestamp: time.Now().Unix()})
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case data, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) recordMessage(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordStreamMessage(direction, msgType)
	}
}
