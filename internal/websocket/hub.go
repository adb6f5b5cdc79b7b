package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the connected trip-board clients and fans trip events
// out to them. At most one connection per user (a reconnect replaces
// the previous one).
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Outbound events to fan out
	broadcast chan *TripEvent

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// TripEvent is one trip-board update pushed to dashboards.
type TripEvent struct {
	Type string      `json:"type"` // trip_created, trip_updated, trip_deleted
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *TripEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if prev, ok := h.clients[client.UserID]; ok {
				// Signal shutdown on done, never by closing send: the
				// replaced connection's ReadPump may still queue a pong
				// reply.
				close(prev.done)
			}
			h.clients[client.UserID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("✅ [WS] Client connected: %s (%s), total %d", client.UserID, client.Role, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.done)
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔴 [WS] Client disconnected: %s, remaining %d", client.UserID, remaining)

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("❌ Failed to marshal trip event: %v", err)
				continue
			}

			h.mu.Lock()
			for userID, client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client buffer full, disconnect
					close(client.done)
					delete(h.clients, userID)
					log.Printf("⚠️ Client buffer full, disconnecting: %s", userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastTripEvent queues a trip-board event for every connected
// dashboard. Safe to call from any goroutine.
func (h *Hub) BroadcastTripEvent(eventType string, trip interface{}) {
	h.broadcast <- &TripEvent{Type: eventType, Data: trip}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks whether a user has a live trip-board connection.
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
