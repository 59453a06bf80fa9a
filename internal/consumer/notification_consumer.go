package consumer

import (
	"context"
	"encoding/json"

	"github.com/Eursukkul/quickfix-service/internal/notify"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// NotificationConsumer relays broker notifications into the local hub.
type NotificationConsumer struct {
	hub    notify.Bus
	logger *zap.Logger
}

func NewNotificationConsumer(hub notify.Bus, logger *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{hub: hub, logger: logger}
}

// Start drains msgs until the channel closes or ctx is done. The returned
// channel closes when the loop exits.
func (nc *NotificationConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					nc.logger.Info("delivery channel closed, stopping consumer")
					return
				}
				nc.handleMessage(ctx, msg)
			}
		}
	}()
	return done
}

func (nc *NotificationConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var n notify.Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil || n.Event == "" {
		nc.logger.Warn("discarding malformed notification",
			zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		msg.Nack(false, false)
		return
	}

	if err := nc.hub.Publish(ctx, n); err != nil {
		nc.logger.Error("relay notification", zap.String("event", n.Event), zap.Error(err))
		msg.Nack(false, true)
		return
	}

	nc.logger.Debug("relayed notification", zap.String("event", n.Event), zap.Uint("cursor", n.Cursor))
	msg.Ack(false)
}
