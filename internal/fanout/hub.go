// Package fanout pushes committed ledger events to the websocket connections
// subscribed to a game.
package fanout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"gamebank/internal/models"
)

var (
	ErrHubClosed         = errors.New("hub closed")
	ErrUnknownConnection = errors.New("unknown connection")
)

// Hub tracks connections and the game rooms they joined. It is created once
// per process and closed on shutdown.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Client
	rooms  map[string]map[string]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.conns[client.id] = client
	return nil
}

// Unregister drops the connection from every room and closes its queue.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.conns[connID]
	if !ok {
		return
	}
	for gameID := range client.rooms {
		h.leave(connID, gameID)
	}
	delete(h.conns, connID)
	close(client.send)
}

func (h *Hub) Subscribe(connID, gameID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[string]struct{})
	}
	h.rooms[gameID][connID] = struct{}{}
	client.rooms[gameID] = struct{}{}
	return nil
}

func (h *Hub) Unsubscribe(connID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(connID, gameID)
}

func (h *Hub) leave(connID, gameID string) {
	if client, ok := h.conns[connID]; ok {
		delete(client.rooms, gameID)
	}
	room := h.rooms[gameID]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// Publish queues the event on every subscriber of gameID. A subscriber whose
// queue is full misses the event.
func (h *Hub) Publish(gameID string, kind models.EventKind, payload any) {
	message, err := json.Marshal(models.Event{Type: kind, GameID: gameID, Data: payload})
	if err != nil {
		slog.Error("encode event", "game_id", gameID, "type", kind, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[gameID] {
		client := h.conns[connID]
		select {
		case client.send <- message:
		default:
			slog.Warn("dropped event for slow subscriber", "game_id", gameID, "conn_id", connID, "type", kind)
		}
	}
}

// Subscribers reports how many connections are in gameID's room.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for connID, client := range h.conns {
		close(client.send)
		delete(h.conns, connID)
	}
	h.rooms = make(map[string]map[string]struct{})
}
