package notify

import (
	"context"
	"strings"
)

// Routing keys on the bookings exchange.
const (
	BookingKeys  = "booking.*"
	TrackingKeys = "tracking.*"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BrokerBus sends notifications through the broker; every instance relays
// them back into its own Hub.
type BrokerBus struct {
	pub Publisher
}

func NewBrokerBus(pub Publisher) *BrokerBus {
	return &BrokerBus{pub: pub}
}

func (b *BrokerBus) Publish(ctx context.Context, n Notification) error {
	return b.pub.Publish(ctx, RoutingKey(n), n)
}

// RoutingKey maps an event name onto the exchange's topic layout. Booking
// events already carry their prefix.
func RoutingKey(n Notification) string {
	if strings.HasPrefix(n.Event, "booking.") {
		return n.Event
	}
	return "tracking." + n.Event
}
