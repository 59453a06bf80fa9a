package models

import (
	"slices"
	"time"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusAccepted   BookingStatus = "accepted"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// transitions is the booking lifecycle: a forward walk with cancellation
// allowed until the job is completed.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return slices.Contains(transitions[s], next)
}

func (s BookingStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
	SlotWeekend   TimeSlot = "weekend"
)

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	CustomerID    uint          `gorm:"not null;index" json:"customer_id"`
	ProviderID    *uint         `gorm:"index" json:"provider_id,omitempty"`
	ServiceID     uint          `gorm:"not null" json:"service_id"`
	Urgency       Urgency       `gorm:"type:varchar(20);not null;default:'normal'" json:"urgency"`
	TimeSlot      TimeSlot      `gorm:"type:varchar(20);not null" json:"time_slot"`
	Location      string        `gorm:"not null" json:"location"`
	ScheduledDate time.Time     `gorm:"not null" json:"scheduled_date"`
	TotalPrice    int64         `gorm:"not null" json:"total_price"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Version       int           `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

// BookingView is a booking row joined with its service for list screens.
type BookingView struct {
	Booking
	ServiceName     string `json:"service_name"`
	ServiceCategory string `json:"category"`
}
