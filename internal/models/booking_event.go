package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is an outbox row. ID is the replay cursor handed to clients.
type BookingEvent struct {
	ID          uint           `gorm:"primaryKey" json:"cursor"`
	EventID     string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"`
	BookingID   uint           `gorm:"not null;index" json:"booking_id"`
	CustomerID  uint           `gorm:"not null;index" json:"customer_id"`
	Name        string         `gorm:"type:varchar(64);not null" json:"event"`
	Payload     datatypes.JSON `json:"data"`
	CreatedAt   time.Time      `json:"created_at"`
	PublishedAt *time.Time     `gorm:"index" json:"-"`
}

type BookingCreatedPayload struct {
	BookingID  uint `json:"booking_id"`
	CustomerID uint `json:"customer_id"`
	ServiceID  uint `json:"service_id"`
}

type StatusChangedPayload struct {
	BookingID  uint          `json:"booking_id"`
	Status     BookingStatus `json:"status"`
	ProviderID *uint         `json:"provider_id,omitempty"`
}
