// Package notify fans booking notifications out to connected clients.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventLocationUpdate = "location_update"

	defaultBuffer = 32
)

// Notification is one frame delivered to subscribers. Room and CustomerID are
// routing metadata: Room limits delivery to the room's members, CustomerID
// hides a broadcast from every customer except the owner.
type Notification struct {
	Event      string          `json:"event"`
	Cursor     uint            `json:"cursor,omitempty"`
	EventID    string          `json:"event_id,omitempty"`
	Room       string          `json:"room,omitempty"`
	CustomerID uint            `json:"customer_id,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Frame is what a client sees on the wire; the routing metadata stays server side.
type Frame struct {
	Event   string          `json:"event"`
	Cursor  uint            `json:"cursor,omitempty"`
	EventID string          `json:"event_id,omitempty"`
	Data    json.RawMessage `json:"data"`
}

func (n Notification) Frame() Frame {
	return Frame{Event: n.Event, Cursor: n.Cursor, EventID: n.EventID, Data: n.Data}
}

// Bus publishes notifications; delivery is best effort.
type Bus interface {
	Publish(ctx context.Context, n Notification) error
}

func RoomForUser(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

type Subscriber struct {
	ID     string
	UserID uint
	Role   string

	rooms map[string]struct{}
	send  chan Notification
}

func (s *Subscriber) C() <-chan Notification {
	return s.send
}

func (s *Subscriber) accepts(n Notification) bool {
	if n.Room != "" {
		_, ok := s.rooms[n.Room]
		return ok
	}
	if s.Role == "customer" && n.CustomerID != 0 {
		return n.CustomerID == s.UserID
	}
	return true
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buffer int
	logger *zap.Logger
}

func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a subscriber already joined to its own user room.
func (h *Hub) Subscribe(userID uint, role string) *Subscriber {
	s := &Subscriber{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		rooms:  map[string]struct{}{RoomForUser(userID): {}},
		send:   make(chan Notification, h.buffer),
	}

	h.mu.Lock()
	h.subs[s.ID] = s
	h.mu.Unlock()

	h.logger.Debug("subscriber joined", zap.String("subscriber", s.ID), zap.Uint("user_id", userID))
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.ID]; !ok {
		return
	}
	delete(h.subs, s.ID)
	close(s.send)
}

func (h *Hub) Join(s *Subscriber, room string) {
	h.mu.Lock()
	s.rooms[room] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish never blocks: a subscriber with a full buffer misses the frame and
// is expected to catch up by cursor replay.
func (h *Hub) Publish(_ context.Context, n Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if !s.accepts(n) {
			continue
		}
		select {
		case s.send <- n:
		default:
			h.logger.Warn("dropping notification for slow subscriber",
				zap.String("subscriber", s.ID),
				zap.String("event", n.Event),
				zap.Uint("cursor", n.Cursor))
		}
	}
	return nil
}
