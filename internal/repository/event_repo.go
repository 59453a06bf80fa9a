package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"gorm.io/gorm"
)

// EventRepository is the booking outbox: an append-only log keyed by booking.
type EventRepository interface {
	Append(ctx context.Context, tx *gorm.DB, event *models.BookingEvent) error
	MarkPublished(ctx context.Context, id uint, at time.Time) error
	FindUnpublished(ctx context.Context, createdBefore time.Time, limit int) ([]models.BookingEvent, error)
	FindByBooking(ctx context.Context, bookingID, after uint, limit int) ([]models.BookingEvent, error)
	// FindSince lists events after the cursor; a nil customerID lists every customer's events.
	FindSince(ctx context.Context, after uint, customerID *uint, limit int) ([]models.BookingEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, tx *gorm.DB, event *models.BookingEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) MarkPublished(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.BookingEvent{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", at).Error
}

func (r *eventRepository) FindUnpublished(ctx context.Context, createdBefore time.Time, limit int) ([]models.BookingEvent, error) {
	var events []models.BookingEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL AND created_at < ?", createdBefore).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) FindByBooking(ctx context.Context, bookingID, after uint, limit int) ([]models.BookingEvent, error) {
	var events []models.BookingEvent
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND id > ?", bookingID, after).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) FindSince(ctx context.Context, after uint, customerID *uint, limit int) ([]models.BookingEvent, error) {
	var events []models.BookingEvent
	q := r.db.WithContext(ctx).Where("id > ?", after)
	if customerID != nil {
		q = q.Where("customer_id = ?", *customerID)
	}
	err := q.Order("id ASC").Limit(limit).Find(&events).Error
	return events, err
}
