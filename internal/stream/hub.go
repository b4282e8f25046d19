package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"backend-everywhere/internal/place"
)

// Hub fans place updates out to websocket clients. With Redis configured,
// updates are also relayed between API instances.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	cancel context.CancelFunc
	ready  chan struct{}
}

type Client struct {
	UserID string
	Send   chan []byte
}

// Update is the message pushed after a user's places change.
type Update struct {
	UserID    string         `json:"user_id"`
	Places    []place.Record `json:"places"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		cancel:  cancel,
		ready:   make(chan struct{}),
	}

	if redisClient != nil {
		go h.subscribeRedis(ctx)
	} else {
		close(h.ready)
	}
	return h
}

// Close stops relaying Redis messages.
func (h *Hub) Close() {
	h.cancel()
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
}

// Broadcast delivers payload to the local clients of userID and publishes it
// for other instances. Slow clients drop messages.
func (h *Hub) Broadcast(userID string, payload []byte) {
	h.deliver(userID, payload)

	if h.redis != nil {
		msg, _ := json.Marshal(envelope{Origin: h.id, Payload: payload})
		if err := h.redis.Publish(context.Background(), redisChannel(userID), msg).Err(); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("redis publish failed")
		}
	}
}

// PublishPlaces broadcasts a place snapshot. It fits place.WithOnUpdate.
func (h *Hub) PublishPlaces(userID string, records []place.Record) {
	payload, err := json.Marshal(Update{UserID: userID, Places: records, UpdatedAt: time.Now().UTC()})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("encode place update")
		return
	}
	h.Broadcast(userID, payload)
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		log.Warn().Err(err).Msg("redis subscribe failed")
		close(h.ready)
		return
	}
	close(h.ready)

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Debug().Err(err).Str("channel", msg.Channel).Msg("dropping malformed update")
			continue
		}
		if env.Origin == h.id {
			continue
		}
		if userID := userIDFromChannel(msg.Channel); userID != "" {
			h.deliver(userID, env.Payload)
		}
	}
}

const (
	channelPrefix  = "places:"
	channelSuffix  = ":updates"
	channelPattern = channelPrefix + "*" + channelSuffix
)

func redisChannel(userID string) string {
	return channelPrefix + userID + channelSuffix
}

// userIDFromChannel parses places:{user}:updates.
func userIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
