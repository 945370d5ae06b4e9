// Package realtime pushes wallet events to connected clients over WebSocket.
// Events fan out across API instances through Redis Pub/Sub.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcash/mcash-api/internal/pkg/metrics"
)

// EventsChannel is the Redis channel every instance publishes to and reads from.
const EventsChannel = "wallet:events"

// Event is the frame written to clients.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// envelope wraps an Event for cross-instance delivery.
type envelope struct {
	UserID           string          `json:"user_id"`
	Event            json.RawMessage `json:"event"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection is one client session.
type Connection struct {
	UserID uuid.UUID
	Send   chan []byte
}

// Hub tracks local connections per user and relays events between instances.
type Hub struct {
	connections map[uuid.UUID]map[*Connection]bool
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a hub. A nil client keeps delivery local to this instance.
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a hub with an explicit instance identifier.
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}
}

// Run processes registrations until Shutdown (call in goroutine).
func (h *Hub) Run() {
	if h.redis != nil {
		pubsub := h.redis.Subscribe(h.ctx, EventsChannel)
		h.mu.Lock()
		h.pubsub = pubsub
		h.mu.Unlock()
		go h.runRedisSubscriber(pubsub)
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()
			metrics.RealtimeConnections.Inc()
			log.Debug().Str("user_id", conn.UserID.String()).Msg("Wallet event stream connected")

		case conn := <-h.unregister:
			h.remove(conn)
			log.Debug().Str("user_id", conn.UserID.String()).Msg("Wallet event stream disconnected")
		}
	}
}

// remove drops conn and closes its Send channel once.
func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[conn.UserID]
	if !ok {
		return
	}
	if _, exists := conns[conn]; exists {
		delete(conns, conn)
		close(conn.Send)
		metrics.RealtimeConnections.Dec()
	}
	if len(conns) == 0 {
		delete(h.connections, conn.UserID)
	}
}

func (h *Hub) runRedisSubscriber(pubsub *redis.PubSub) {
	ch := pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRemote(msg.Payload)
		}
	}
}

// handleRemote delivers an event published by another instance.
func (h *Hub) handleRemote(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Warn().Err(err).Msg("Malformed wallet event on Redis channel")
		return
	}
	if env.SenderInstanceID == h.instanceID {
		return
	}
	userID, err := uuid.Parse(env.UserID)
	if err != nil {
		return
	}
	h.deliverLocal(userID, env.Event)
}

// Register adds a connection. After Shutdown the connection is refused and
// its Send channel closed so the writer ends the stream.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
		close(conn.Send)
	}
}

// Unregister removes a connection and closes its Send channel. It never
// blocks once the hub is shut down.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
		h.remove(conn)
	}
}

// Publish sends an event to every session of userID on every instance. Local
// sessions are served first; the returned error only reports the Redis fan-out.
func (h *Hub) Publish(ctx context.Context, userID uuid.UUID, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return err
	}

	h.deliverLocal(userID, frame)

	if h.redis == nil {
		return nil
	}

	msg, err := json.Marshal(envelope{
		UserID:           userID.String(),
		Event:            frame,
		SenderInstanceID: h.instanceID,
	})
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, EventsChannel, string(msg)).Err()
}

func (h *Hub) deliverLocal(userID uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[userID] {
		select {
		case conn.Send <- frame:
			metrics.RealtimeEventsTotal.WithLabelValues("sent").Inc()
		default:
			metrics.RealtimeEventsTotal.WithLabelValues("dropped").Inc()
			log.Warn().Str("user_id", userID.String()).Msg("Wallet event buffer full")
		}
	}
}

// ConnectionCount returns the number of local connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown stops the hub and its Redis subscription.
func (h *Hub) Shutdown() {
	h.cancel()

	h.mu.RLock()
	pubsub := h.pubsub
	h.mu.RUnlock()
	if pubsub != nil {
		pubsub.Close()
	}
}
