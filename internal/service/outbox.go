package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/notify"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const relayBatchSize = 100

func newBookingEvent(booking *models.Booking, name string, payload any) (*models.BookingEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return &models.BookingEvent{
		EventID:    uuid.NewString(),
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		Name:       name,
		Payload:    datatypes.JSON(body),
	}, nil
}

// ToNotification renders an outbox row as the frame clients receive.
func ToNotification(ev models.BookingEvent) notify.Notification {
	return notify.Notification{
		Event:      ev.Name,
		Cursor:     ev.ID,
		EventID:    ev.EventID,
		CustomerID: ev.CustomerID,
		Data:       json.RawMessage(ev.Payload),
	}
}

// Dispatcher publishes committed outbox rows and stamps them as published.
type Dispatcher struct {
	events repository.EventRepository
	bus    notify.Bus
	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(events repository.EventRepository, bus notify.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		events: events,
		bus:    bus,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch never fails the caller: the booking write already committed, and
// rows left unpublished are picked up by the relay.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...*models.BookingEvent) {
	for _, ev := range events {
		if err := d.bus.Publish(ctx, ToNotification(*ev)); err != nil {
			d.logger.Warn("publish booking event",
				zap.String("event", ev.Name),
				zap.Uint("cursor", ev.ID),
				zap.Uint("booking_id", ev.BookingID),
				zap.Error(err))
			continue
		}
		if err := d.events.MarkPublished(ctx, ev.ID, d.now()); err != nil {
			d.logger.Warn("mark booking event published", zap.Uint("cursor", ev.ID), zap.Error(err))
		}
	}
}

// OutboxRelay periodically republishes events whose dispatch never completed.
type OutboxRelay struct {
	dispatcher *Dispatcher
	events     repository.EventRepository
	interval   time.Duration
	grace      time.Duration
	logger     *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

func NewOutboxRelay(dispatcher *Dispatcher, events repository.EventRepository, interval, grace time.Duration, logger *zap.Logger) *OutboxRelay {
	return &OutboxRelay{
		dispatcher: dispatcher,
		events:     events,
		interval:   interval,
		grace:      grace,
		logger:     logger,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.logger.Info("starting outbox relay", zap.Duration("interval", r.interval))
	go r.run(ctx)
}

// Stop halts the relay and waits for an in-flight sweep to finish.
func (r *OutboxRelay) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	if r.started.Load() {
		<-r.done
	}
}

func (r *OutboxRelay) run(ctx context.Context) {
	defer close(r.done)

	r.Sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-r.stopChan:
			r.logger.Info("outbox relay stopped")
			return
		case <-ctx.Done():
			r.logger.Info("outbox relay cancelled")
			return
		}
	}
}

// Sweep republishes one batch of stale unpublished events and reports how
// many it found.
func (r *OutboxRelay) Sweep(ctx context.Context) int {
	cutoff := r.dispatcher.now().Add(-r.grace)
	pending, err := r.events.FindUnpublished(ctx, cutoff, relayBatchSize)
	if err != nil {
		r.logger.Error("load unpublished events", zap.Error(err))
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	r.logger.Info("relaying unpublished events", zap.Int("count", len(pending)))
	for i := range pending {
		r.dispatcher.Dispatch(ctx, &pending[i])
	}
	return len(pending)
}
