package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans marker engagement events out to connected clients. With redis
// configured, events also travel through pubsub so every instance sees them.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	MarkerID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(markerID string) *Client {
	client := &Client{
		MarkerID: markerID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[markerID] == nil {
		h.clients[markerID] = map[*Client]struct{}{}
	}
	h.clients[markerID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if markerClients, ok := h.clients[client.MarkerID]; ok {
		delete(markerClients, client)
		if len(markerClients) == 0 {
			delete(h.clients, client.MarkerID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(markerID string, payload []byte) {
	h.deliver(markerID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(markerID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "markers:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(markerIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

// deliver sends to every client of a marker while the read lock is held, so
// Unregister cannot close a Send channel mid-send. Sends never block: a
// saturated client just drops the event.
func (h *Hub) deliver(markerID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[markerID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func redisChannel(markerID string) string {
	return "markers:" + markerID + ":events"
}

func markerIDFromChannel(ch string) string {
	// markers:{marker}:events
	const prefix = "markers:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
