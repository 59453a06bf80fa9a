package dto

import (
	"errors"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/models"
)

const dateOnly = "2006-01-02"

var ErrBadScheduledDate = errors.New("scheduled_date must be RFC3339 or YYYY-MM-DD")

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MembershipRequest struct {
	Tier models.MembershipTier `json:"tier"`
}

type CreateServiceRequest struct {
	Name        string          `json:"name"`
	Category    models.Category `json:"category"`
	Description string          `json:"description"`
	BasePrice   float64         `json:"base_price"`
}

type QuoteRequest struct {
	ServiceID uint            `json:"service_id"`
	Urgency   models.Urgency  `json:"urgency"`
	TimeSlot  models.TimeSlot `json:"time_slot"`
	Location  string          `json:"location"`
}

type CreateBookingRequest struct {
	ServiceID     uint            `json:"service_id"`
	Urgency       models.Urgency  `json:"urgency"`
	TimeSlot      models.TimeSlot `json:"time_slot"`
	Location      string          `json:"location"`
	ScheduledDate string          `json:"scheduled_date"`
}

// ParseScheduledDate accepts a full timestamp or a bare date. An empty value
// yields the zero time and is left for the service to reject.
func (r CreateBookingRequest) ParseScheduledDate() (time.Time, error) {
	if r.ScheduledDate == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, r.ScheduledDate); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnly, r.ScheduledDate); err == nil {
		return t, nil
	}
	return time.Time{}, ErrBadScheduledDate
}

type UpdateStatusRequest struct {
	Status models.BookingStatus `json:"status"`
}
