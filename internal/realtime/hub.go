package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// JoinHandler is called after a client joined a topic, e.g. to send it a snapshot.
type JoinHandler func(c *Client)

// Hub maintains topic -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling when a publisher is configured.
type Hub struct {
	// topic -> map[clientID]*Client
	topics   map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per topic
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
	onJoin   JoinHandler
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishTopicEvent(topic, event string, payload []byte) error
}

// RedisSubscriber subscribes to topic channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeTopic(topic string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a
// single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics:   make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetJoinHandler sets the callback run after each Register.
func (h *Hub) SetJoinHandler(fn JoinHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onJoin = fn
}

// Register adds a client to a topic. Starts the Redis subscription for the topic if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.topics[c.Topic] == nil {
		h.topics[c.Topic] = make(map[string]*Client)
		if h.redisSub != nil {
			topic := c.Topic
			cancel, err := h.redisSub.SubscribeTopic(topic, func(event string, payload []byte) {
				h.Broadcast(topic, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("redis subscribe failed", zap.String("topic", topic), zap.Error(err))
			} else {
				h.subs[topic] = cancel
			}
		}
	}
	h.topics[c.Topic][c.ID] = c
	onJoin := h.onJoin
	h.mu.Unlock()
	if onJoin != nil {
		onJoin(c)
	}
	h.logger.Debug("client joined topic", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

// Unregister removes a client from its topic. Cancels the Redis subscription when last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.topics[c.Topic]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.topics, c.Topic)
			if cancel, ok := h.subs[c.Topic]; ok {
				cancel()
				delete(h.subs, c.Topic)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left topic", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

func encode(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}

// Broadcast sends a message to all clients of a topic (local only).
func (h *Hub) Broadcast(topic, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode broadcast failed", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.topics[topic] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every instance. With Redis the subscriber
// callback performs the local broadcast, so local clients receive it once.
func (h *Hub) Publish(topic, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(topic, event, payload)
		return
	}
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode publish failed", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishTopicEvent(topic, event, data); err != nil {
		h.logger.Warn("redis publish failed, broadcasting locally", zap.String("topic", topic), zap.Error(err))
		h.Broadcast(topic, event, json.RawMessage(data))
	}
}

// Count returns the number of connected clients of a topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Send queues a message for a single client.
func (c *Client) Send(event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}
