package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "banana_cluster_events"

type wirePayload struct {
	Type string                 `json:"type"`
	Name string                 `json:"name"`
	Data map[string]interface{} `json:"data"`
	At   time.Time              `json:"at"`
}

type clusterMessage struct {
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// Hub fans incoming domain events out to connected websocket clients.
// With redis configured, events published on one instance reach clients
// connected to any other instance.
type Hub struct {
	// UserID -> connections, multi-device
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "client unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

func encodeEvent(event events.Event) []byte {
	data, _ := json.Marshal(wirePayload{
		Type: "event",
		Name: event.EventType(),
		Data: event.Payload(),
		At:   event.Timestamp(),
	})
	return data
}

// Broadcast delivers an event to every connected client on every instance.
func (h *Hub) Broadcast(event events.Event) {
	data := encodeEvent(event)

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{TargetUserID: "*", Message: data})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

// Send delivers an event to every connection a single user holds.
func (h *Hub) Send(userID uuid.UUID, event events.Event) {
	data := encodeEvent(event)

	h.mu.RLock()
	clients, localFound := h.clients[userID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "client send buffer full, dropping", map[string]interface{}{"user_id": userID})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	// Other instances may hold connections for the same user.
	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{TargetUserID: userID.String(), Message: data})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

func (h *Hub) deliverLocal(uid uuid.UUID, message []byte) {
	h.mu.RLock()
	clients, ok := h.clients[uid]
	h.mu.RUnlock()
	if !ok {
		return
	}
	for _, client := range clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "bad cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}

		if payload.TargetUserID == "*" {
			h.mu.RLock()
			for _, clients := range h.clients {
				for _, client := range clients {
					select {
					case client.Send <- payload.Message:
					default:
						close(client.Send)
						h.unregister <- client
					}
				}
			}
			h.mu.RUnlock()
			continue
		}

		uid, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			continue
		}
		h.deliverLocal(uid, payload.Message)
	}
}
