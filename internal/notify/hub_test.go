package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func drain(s *Subscriber) []Notification {
	var out []Notification
	for {
		select {
		case n := <-s.C():
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestHub_BroadcastReachesProvidersAndOwner(t *testing.T) {
	h := NewHub(zap.NewNop(), 4)
	owner := h.Subscribe(1, "customer")
	other := h.Subscribe(2, "customer")
	provider := h.Subscribe(3, "provider")
	admin := h.Subscribe(4, "admin")

	err := h.Publish(context.Background(), Notification{
		Event:      "booking.created",
		CustomerID: 1,
		Data:       json.RawMessage(`{"booking_id":10}`),
	})

	assert.NoError(t, err)
	assert.Len(t, drain(owner), 1)
	assert.Empty(t, drain(other))
	assert.Len(t, drain(provider), 1)
	assert.Len(t, drain(admin), 1)
}

func TestHub_RoomScopedDelivery(t *testing.T) {
	h := NewHub(zap.NewNop(), 4)
	customer := h.Subscribe(7, "customer")
	provider := h.Subscribe(8, "provider")

	_ = h.Publish(context.Background(), Notification{Event: EventLocationUpdate, Room: RoomForUser(7)})

	got := drain(customer)
	assert.Len(t, got, 1)
	assert.Equal(t, EventLocationUpdate, got[0].Event)
	assert.Empty(t, drain(provider))

	h.Join(provider, RoomForUser(7))
	_ = h.Publish(context.Background(), Notification{Event: EventLocationUpdate, Room: RoomForUser(7)})
	assert.Len(t, drain(provider), 1)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(zap.NewNop(), 1)
	s := h.Subscribe(1, "provider")

	for i := 0; i < 5; i++ {
		assert.NoError(t, h.Publish(context.Background(), Notification{Event: "booking.created", Cursor: uint(i + 1)}))
	}

	got := drain(s)
	assert.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].Cursor)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(zap.NewNop(), 1)
	s := h.Subscribe(1, "provider")
	assert.Equal(t, 1, h.Len())

	h.Unsubscribe(s)
	h.Unsubscribe(s)
	assert.Equal(t, 0, h.Len())

	_, open := <-s.C()
	assert.False(t, open)
	assert.NoError(t, h.Publish(context.Background(), Notification{Event: "booking.created"}))
}

func TestRoomForUser(t *testing.T) {
	assert.Equal(t, "user_12", RoomForUser(12))
}
