package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans recorder output (state changes, statistics snapshots, notices) out
// to websocket observers of a ride. Observers are strictly read-only; all
// mutation happens in the recorder. A redis relay keeps multiple processes'
// observers in sync.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RideID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.relayRedis()
	}
	return h
}

func (h *Hub) Register(rideID string) *Client {
	client := &Client{
		RideID: rideID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[rideID] == nil {
		h.clients[rideID] = map[*Client]struct{}{}
	}
	h.clients[rideID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if observers, ok := h.clients[client.RideID]; ok {
		delete(observers, client)
		if len(observers) == 0 {
			delete(h.clients, client.RideID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a payload to local observers and publishes it for other
// processes. Slow observers are skipped, never blocked on. Local observers
// may see a payload again via the relay; every payload is a full snapshot,
// so re-delivery changes nothing.
func (h *Hub) Broadcast(rideID string, payload []byte) {
	h.deliver(rideID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(rideID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(rideID string, payload []byte) {
	h.mu.RLock()
	observers := h.clients[rideID]
	h.mu.RUnlock()

	for client := range observers {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) relayRedis() {
	pubsub := h.redis.PSubscribe(context.Background(), "ride:*:state")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(rideIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(rideID string) string {
	return "ride:" + rideID + ":state"
}

func rideIDFromChannel(ch string) string {
	// ride:{rideID}:state
	const prefix = "ride:"
	const suffix = ":state"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
