// Package ws implements the realtime fan-out layer: clients join named rooms
// over a WebSocket and receive events broadcast to those rooms.
package ws

import (
	"encoding/json"
	"regexp"
	"sync"

	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/metrics"
)

// Room name patterns. Anything else is rejected at join time.
var roomPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^farm-[A-Za-z0-9_-]+$`),
	regexp.MustCompile(`^weather-(-?\d+(\.\d+)?)-(-?\d+(\.\d+)?)$`),
	regexp.MustCompile(`^marketplace-[A-Za-z0-9_-]+$`),
	regexp.MustCompile(`^notifications-[A-Za-z0-9_-]+$`),
}

// ValidRoom reports whether name matches one of the supported room shapes.
func ValidRoom(name string) bool {
	for _, p := range roomPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// Event is one message fanned out to a room.
type Event struct {
	Event string      `json:"event"`
	Room  string      `json:"room,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub tracks connected clients and their room memberships.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]bool),
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	metrics.WSConnections.Inc()
}

// unregister removes the client from every room it joined.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room, members := range h.rooms {
		if members[c] {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()
	metrics.WSConnections.Dec()
	close(c.send)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of clients currently joined to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends an event to every client in the room. Clients whose send
// buffer is full are skipped; the write pump disconnects them on its own.
func (h *Hub) Broadcast(room, event string, data interface{}) {
	msg, err := json.Marshal(Event{Event: event, Room: room, Data: data})
	if err != nil {
		logger.Errorf("ws: marshal broadcast for room %s: %v", room, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- msg:
		default:
		}
	}
}
