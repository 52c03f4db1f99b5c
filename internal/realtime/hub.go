// Package realtime provides the WebSocket layer for live feed sessions.
// Uses github.com/coder/websocket, the context-aware WebSocket library.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/models"
	"go.uber.org/zap"
)

// Session filters broadcast feed events for one connection. A connection
// that opened a feed has one; its follow set and loaded items decide which
// events it receives.
type Session interface {
	HandleInsert(post models.Post) bool
	HandleDelete(postID string) bool
	Close()
}

// Hub maintains the set of active clients and broadcasts feed events.
type Hub struct {
	// Registered clients by user ID for targeted messaging.
	clients map[string]map[*Client]struct{}

	// All clients for broadcasting.
	allClients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	posts      chan *postEvent

	mu sync.RWMutex

	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	handlers map[string]MessageHandler

	rateLimitConfig RateLimitConfig
}

// postEvent is a feed change fanned out through per-session filters.
type postEvent struct {
	post    *models.Post
	deleted string
}

// Metrics tracks WebSocket statistics.
type Metrics struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesReceived   atomic.Int64
	MessagesSent       atomic.Int64
	Errors             atomic.Int64
	ConnectionsDropped atomic.Int64
}

// RateLimitConfig defines rate limiting parameters.
type RateLimitConfig struct {
	MaxMessagesPerSecond int
	BurstSize            int
	Window               time.Duration
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxMessagesPerSecond: 10,
		BurstSize:            20,
		Window:               time.Second,
	}
}

// MessageHandler processes incoming messages of a specific type.
type MessageHandler func(client *Client, message *Message) error

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:         make(map[string]map[*Client]struct{}),
		allClients:      make(map[*Client]struct{}),
		register:        make(chan *Client, 256),
		unregister:      make(chan *Client, 256),
		broadcast:       make(chan *Message, 256),
		posts:           make(chan *postEvent, 256),
		metrics:         &Metrics{},
		ctx:             ctx,
		cancel:          cancel,
		handlers:        make(map[string]MessageHandler),
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// RegisterHandler registers a handler for a specific message type.
func (h *Hub) RegisterHandler(msgType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = handler
}

// GetHandler returns the handler for a message type.
func (h *Hub) GetHandler(msgType string) (MessageHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.handlers[msgType]
	return handler, ok
}

// Run starts the hub's main event loop.
func (h *Hub) Run() {
	logger.Log.Info("websocket hub starting")

	for {
		select {
		case <-h.ctx.Done():
			logger.Log.Info("websocket hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case event := <-h.posts:
			h.fanOutPostEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.UserID != "" {
		if h.clients[client.UserID] == nil {
			h.clients[client.UserID] = make(map[*Client]struct{})
		}
		h.clients[client.UserID][client] = struct{}{}
	}
	h.allClients[client] = struct{}{}

	h.metrics.TotalConnections.Add(1)
	h.metrics.ActiveConnections.Add(1)

	logger.Log.Info("websocket client connected",
		zap.String("user_id", client.UserID),
		zap.Int64("active", h.metrics.ActiveConnections.Load()))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)

	if clients, ok := h.clients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}

	if client.Session != nil {
		client.Session.Close()
	}
	close(client.send)

	h.metrics.ActiveConnections.Add(-1)

	logger.Log.Info("websocket client disconnected",
		zap.String("user_id", client.UserID),
		zap.Int64("active", h.metrics.ActiveConnections.Load()))
}

// broadcastMessage sends a message to all connected clients.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Error("marshal broadcast message", zap.Error(err))
		return
	}

	for client := range h.allClients {
		h.push(client, data)
	}
}

// fanOutPostEvent routes a feed change through each connection's session.
// Only sessions that actually merged the change get notified, so a client
// on the chronological tab never hears about authors it does not follow.
func (h *Hub) fanOutPostEvent(event *postEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.allClients {
		if client.Session == nil {
			continue
		}
		var msg *Message
		switch {
		case event.post != nil:
			if !client.Session.HandleInsert(*event.post) {
				continue
			}
			msg = NewMessage(MessageTypeNewPost, event.post)
		case event.deleted != "":
			if !client.Session.HandleDelete(event.deleted) {
				continue
			}
			msg = NewMessage(MessageTypePostDeleted, map[string]string{"post_id": event.deleted})
		default:
			continue
		}
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Log.Error("marshal post event", zap.Error(err))
			return
		}
		h.push(client, data)
	}
}

// push writes to a client's send buffer, dropping the client if full.
// Callers hold h.mu for reading.
func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.send <- data:
		h.metrics.MessagesSent.Add(1)
	default:
		h.metrics.ConnectionsDropped.Add(1)
		go func(c *Client) {
			h.unregister <- c
		}(client)
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	}
}

// BroadcastNewPost fans a freshly created post out to every live feed
// session whose view should include it.
func (h *Hub) BroadcastNewPost(post models.Post) {
	select {
	case h.posts <- &postEvent{post: &post}:
	case <-h.ctx.Done():
	}
}

// BroadcastPostDeleted removes a post from every live feed session.
func (h *Hub) BroadcastPostDeleted(postID string) {
	select {
	case h.posts <- &postEvent{deleted: postID}:
	case <-h.ctx.Done():
	}
}

// SendToUser sends a message to a specific user (all their connections).
func (h *Hub) SendToUser(userID string, message *Message) {
	h.mu.RLock()
	clients, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok || len(clients) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Error("marshal unicast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range clients {
		h.push(client, data)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// IsUserOnline checks if a user has any active connections.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}

// GetMetrics returns current WebSocket metrics.
func (h *Hub) GetMetrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalConnections:   h.metrics.TotalConnections.Load(),
		ActiveConnections:  h.metrics.ActiveConnections.Load(),
		MessagesReceived:   h.metrics.MessagesReceived.Load(),
		MessagesSent:       h.metrics.MessagesSent.Load(),
		Errors:             h.metrics.Errors.Load(),
		ConnectionsDropped: h.metrics.ConnectionsDropped.Load(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	TotalConnections   int64 `json:"total_connections"`
	ActiveConnections  int64 `json:"active_connections"`
	MessagesReceived   int64 `json:"messages_received"`
	MessagesSent       int64 `json:"messages_sent"`
	Errors             int64 `json:"errors"`
	ConnectionsDropped int64 `json:"connections_dropped"`
}

// Shutdown gracefully shuts down the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		// The run loop drains into shutdown() once the context cancels.
		for {
			h.mu.RLock()
			n := len(h.allClients)
			h.mu.RUnlock()
			if n == 0 {
				close(done)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// shutdown closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	shutdownMsg := NewMessage(MessageTypeSystem, map[string]interface{}{"event": "server_shutdown"})
	data, _ := json.Marshal(shutdownMsg)

	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
		}
		if client.Session != nil {
			client.Session.Close()
		}
		close(client.send)
	}

	h.clients = make(map[string]map[*Client]struct{})
	h.allClients = make(map[*Client]struct{})
}

// GetRateLimitConfig returns the current rate limit configuration.
func (h *Hub) GetRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}

// SetRateLimitConfig updates the rate limiting configuration.
func (h *Hub) SetRateLimitConfig(config RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = config
}
