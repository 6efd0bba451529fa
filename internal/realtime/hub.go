package realtime

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/auditctx"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/dialogue"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/metrics"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/validator"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10

	defaultBufferSize = 64
	defaultRate       = 5
	defaultBurst      = 10
)

// TurnHandler applies one chat event and returns the prompt to show next.
type TurnHandler interface {
	Handle(ctx context.Context, ev dialogue.Event) dialogue.Reply
}

// Hub is the websocket chat gateway. It feeds client frames into the dialogue engine and
// pushes prompts and reminders back to every connection of a user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[int64]map[*connection]struct{}
	upgrader websocket.Upgrader
	handler  TurnHandler
	limiters *limiterSet
	log      *zap.Logger

	closed bool
	active sync.WaitGroup
}

// Option customises a Hub.
type Option func(*hubConfig)

type hubConfig struct {
	perSecond float64
	burst     int
}

// WithRateLimit bounds how many frames per second each user may send.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *hubConfig) {
		cfg.perSecond = perSecond
		cfg.burst = burst
	}
}

// NewHub constructs a chat gateway dispatching turns to handler.
func NewHub(handler TurnHandler, opts ...Option) *Hub {
	cfg := hubConfig{perSecond: defaultRate, burst: defaultBurst}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Hub{
		clients:  make(map[int64]map[*connection]struct{}),
		handler:  handler,
		limiters: newLimiterSet(cfg.perSecond, cfg.burst),
		log:      logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the request and runs the connection until the client goes away.
func (h *Hub) Serve(userID int64, username string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", logger.ChatUser(userID), zap.Error(err))
		return
	}

	client := newConnection(h, conn, userID, username)
	client.ctx = auditctx.WithActor(client.ctx, auditctx.Actor{
		UserID:     userID,
		Username:   username,
		Channel:    "chat",
		RemoteAddr: r.RemoteAddr,
	})
	if !h.register(client) {
		client.cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer h.active.Done()

	go client.writeLoop()
	client.readLoop()
}

// Close stops accepting connections, cancels every open one and waits until their read
// loops stopped calling the turn handler or ctx ends.
func (h *Hub) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	h.mu.Lock()
	h.closed = true
	var open []*connection
	for _, conns := range h.clients {
		for client := range conns {
			open = append(open, client)
		}
	}
	h.mu.Unlock()

	for _, client := range open {
		_ = client.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		client.close()
	}

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		if len(open) > 0 {
			h.log.Info("chat connections closed", zap.Int("connections", len(open)))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendToUser queues frame on every connection of userID and reports how many received it.
func (h *Hub) SendToUser(userID int64, frame ServerFrame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients[userID] {
		if h.enqueue(client, frame) {
			delivered++
		}
	}
	return delivered
}

// PushReminder delivers reminder text to the connected clients of userID.
func (h *Hub) PushReminder(userID int64, text string) int {
	return h.SendToUser(userID, ServerFrame{Event: EventReminder, Text: text})
}

// Connections reports the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

// register adds client unless the hub was closed.
func (h *Hub) register(client *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.active.Add(1)
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*connection]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
	metrics.ChatConnections.Inc()
	return true
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[client.userID]
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	metrics.ChatConnections.Dec()
	if len(conns) == 0 {
		delete(h.clients, client.userID)
		h.limiters.forget(client.userID)
	}
}

func (h *Hub) enqueue(client *connection, frame ServerFrame) bool {
	select {
	case client.send <- frame:
		return true
	default:
		h.log.Warn("dropping backpressure client", logger.ChatUser(client.userID))
		go client.close()
		return false
	}
}

// handleFrame decodes, validates and rate limits one client payload.
func (h *Hub) handleFrame(ctx context.Context, client *connection, payload []byte) ServerFrame {
	var frame ClientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return ServerFrame{Event: EventError, Error: "malformed frame"}
	}
	frame.Kind = strings.ToLower(strings.TrimSpace(frame.Kind))
	if err := validator.ValidateStruct(frame); err != nil {
		return ServerFrame{Event: EventError, Error: err.Error()}
	}
	if !h.limiters.Allow(client.userID) {
		return ServerFrame{Event: EventError, Error: "too many messages, slow down"}
	}

	reply := h.handler.Handle(ctx, frame.Event(client.userID, client.username))
	return ServerFrame{Event: EventPrompt, Prompt: &reply}
}

type connection struct {
	hub      *Hub
	socket   *websocket.Conn
	userID   int64
	username string
	send     chan ServerFrame
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, userID int64, username string) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		hub:      hub,
		socket:   conn,
		userID:   userID,
		username: username,
		send:     make(chan ServerFrame, defaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("unexpected close", logger.ChatUser(c.userID), zap.Error(err))
			}
			break
		}
		if len(payload) == 0 {
			continue
		}
		if c.ctx.Err() != nil {
			return
		}

		frame := c.hub.handleFrame(c.ctx, c, payload)
		if !c.hub.enqueue(c, frame) {
			return
		}
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case frame := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// close is safe to call from both loops and from the hub. The send channel is never
// closed so concurrent enqueues cannot panic.
func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		c.cancel()
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
