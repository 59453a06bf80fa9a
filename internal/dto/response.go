package dto

import (
	"encoding/json"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/models"
)

type CreateBookingResponse struct {
	BookingID  uint                 `json:"booking_id"`
	TotalPrice int64                `json:"total_price"`
	Status     models.BookingStatus `json:"status"`
}

type BookingResponse struct {
	ID            uint                 `json:"id"`
	CustomerID    uint                 `json:"customer_id"`
	ProviderID    *uint                `json:"provider_id,omitempty"`
	ServiceID     uint                 `json:"service_id"`
	ServiceName   string               `json:"service_name,omitempty"`
	Category      models.Category      `json:"category,omitempty"`
	Urgency       models.Urgency       `json:"urgency"`
	TimeSlot      models.TimeSlot      `json:"time_slot"`
	Location      string               `json:"location"`
	ScheduledDate time.Time            `json:"scheduled_date"`
	TotalPrice    int64                `json:"total_price"`
	Status        models.BookingStatus `json:"status"`
	Version       int                  `json:"version"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type StatusResponse struct {
	Message string          `json:"message"`
	Booking BookingResponse `json:"booking"`
}

type EventResponse struct {
	Cursor    uint            `json:"cursor"`
	EventID   string          `json:"event_id"`
	Event     string          `json:"event"`
	BookingID uint            `json:"booking_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		CustomerID:    b.CustomerID,
		ProviderID:    b.ProviderID,
		ServiceID:     b.ServiceID,
		Urgency:       b.Urgency,
		TimeSlot:      b.TimeSlot,
		Location:      b.Location,
		ScheduledDate: b.ScheduledDate,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		Version:       b.Version,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Service != nil {
		resp.ServiceName = b.Service.Name
		resp.Category = b.Service.Category
	}
	return resp
}

func ToBookingViewResponses(views []models.BookingView) []BookingResponse {
	resp := make([]BookingResponse, len(views))
	for i := range views {
		resp[i] = ToBookingResponse(&views[i].Booking)
		resp[i].ServiceName = views[i].ServiceName
		resp[i].Category = models.Category(views[i].ServiceCategory)
	}
	return resp
}

func ToEventResponses(events []models.BookingEvent) []EventResponse {
	resp := make([]EventResponse, len(events))
	for i, ev := range events {
		resp[i] = EventResponse{
			Cursor:    ev.ID,
			EventID:   ev.EventID,
			Event:     ev.Name,
			BookingID: ev.BookingID,
			Data:      json.RawMessage(ev.Payload),
			CreatedAt: ev.CreatedAt,
		}
	}
	return resp
}
