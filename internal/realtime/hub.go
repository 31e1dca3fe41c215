package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains session_id -> set of connections and fans session events out
// to them. Delivery is at-most-once per subscriber: a client whose send
// buffer is full misses the event rather than blocking the publisher.
// With Redis pub/sub attached, events go through Redis only and the
// subscription callback performs the single local broadcast, so multi-
// instance deployments deliver each event once per client and in channel
// publish order.
type Hub struct {
	// sessionID -> map[clientID]*Client
	sessions map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per session
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher publishes session events to Redis for cross-instance broadcast.
type RedisPublisher interface {
	PublishSessionEvent(sessionID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to session channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeSession(sessionID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a
// single-instance deployment; events then broadcast locally only.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a session channel. Starts the Redis subscription
// for this session when the first client arrives; a registration after a
// failed subscribe retries it, so one Redis hiccup does not mute the channel
// for every later client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.sessions[c.SessionID] == nil {
		h.sessions[c.SessionID] = make(map[string]*Client)
	}
	if h.redisSub != nil {
		if _, ok := h.subs[c.SessionID]; !ok {
			cancel, err := h.redisSub.SubscribeSession(c.SessionID, func(event string, payload []byte) {
				h.broadcast(c.SessionID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.SessionID] = cancel
			} else {
				h.logger.Warn("session subscribe failed", zap.String("session_id", c.SessionID.String()), zap.Error(err))
			}
		}
	}
	h.sessions[c.SessionID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client subscribed",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID.String()),
		zap.String("participant", c.Participant))
}

// Unregister removes a client. Cancels the Redis subscription when the last
// client leaves the session channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.sessions[c.SessionID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.sessions, c.SessionID)
			if cancel, ok := h.subs[c.SessionID]; ok {
				cancel()
				delete(h.subs, c.SessionID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client unsubscribed",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID.String()))
}

// PublishToSession delivers an event to every subscriber of the session
// channel. Fire-and-forget: marshal or publish failures are logged and
// never propagate to the caller. With Redis attached and an active
// subscription the event is published only; the subscription callback
// broadcasts it locally exactly once. Without an active subscription (the
// subscribe failed, or no local client established one) the hub broadcasts
// locally itself, so local clients are never cut off from events.
func (h *Hub) PublishToSession(sessionID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("event marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.redis != nil {
		h.mu.RLock()
		_, subscribed := h.subs[sessionID]
		h.mu.RUnlock()

		pubErr := h.redis.PublishSessionEvent(sessionID, event, data)
		if pubErr == nil && subscribed {
			return
		}
		if pubErr != nil {
			h.logger.Warn("event publish failed, broadcasting locally",
				zap.String("event", event),
				zap.String("session_id", sessionID.String()),
				zap.Error(pubErr))
		}
		h.broadcast(sessionID, event, json.RawMessage(data))
		return
	}
	h.broadcast(sessionID, event, json.RawMessage(data))
}

// SubscriberCount returns the number of connected clients on a session channel.
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// SendToClient sends an event to a single client (e.g. the playback snapshot
// pushed on connect).
func (h *Hub) SendToClient(sessionID uuid.UUID, clientID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	c := h.sessions[sessionID][clientID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

// broadcast sends an event to all local clients of a session channel.
func (h *Hub) broadcast(sessionID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.sessions[sessionID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, drop for this subscriber
		}
	}
}
