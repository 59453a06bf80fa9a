// Package pricing turns a service's base price and a booking request into
// the integer price charged to the customer.
package pricing

import (
	"errors"
	"math"
	"strings"

	"github.com/Eursukkul/quickfix-service/internal/models"
)

var (
	ErrInvalidBasePrice = errors.New("base price must be a finite non-negative number")
	ErrPriceOutOfRange  = errors.New("price does not fit in an integer amount")
)

// MaxBasePrice bounds catalog prices so every surcharge combination stays representable.
const MaxBasePrice = 1e12

const (
	urgentMultiplier    = 1.5
	emergencyMultiplier = 2.0
	offHoursMultiplier  = 1.2
	premiumAreaFactor   = 1.3
)

var DefaultPremiumAreas = []string{"Banjara Hills", "Jubilee Hills", "Gachibowli", "Hitech City"}

// Quote is a computed price together with the factors that produced it.
type Quote struct {
	BasePrice          float64 `json:"base_price"`
	Discount           float64 `json:"discount"`
	UrgencyMultiplier  float64 `json:"urgency_multiplier"`
	TimeSlotMultiplier float64 `json:"time_slot_multiplier"`
	LocationMultiplier float64 `json:"location_multiplier"`
	TotalPrice         int64   `json:"total_price"`
}

// Engine is safe for concurrent use; it holds no mutable state.
type Engine struct {
	premiumAreas []string
}

// NewEngine falls back to DefaultPremiumAreas when areas is empty.
func NewEngine(areas []string) *Engine {
	if len(areas) == 0 {
		areas = DefaultPremiumAreas
	}
	lowered := make([]string, 0, len(areas))
	for _, a := range areas {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			lowered = append(lowered, a)
		}
	}
	return &Engine{premiumAreas: lowered}
}

func (e *Engine) Compute(basePrice float64, urgency models.Urgency, slot models.TimeSlot, location string, discount float64) (int64, error) {
	q, err := e.Quote(basePrice, urgency, slot, location, discount)
	if err != nil {
		return 0, err
	}
	return q.TotalPrice, nil
}

// Quote applies, in order: membership discount, urgency, time slot, premium area,
// then rounds half away from zero.
func (e *Engine) Quote(basePrice float64, urgency models.Urgency, slot models.TimeSlot, location string, discount float64) (Quote, error) {
	if math.IsNaN(basePrice) || math.IsInf(basePrice, 0) || basePrice < 0 {
		return Quote{}, ErrInvalidBasePrice
	}
	if math.IsNaN(discount) || discount < 0 || discount >= 1 {
		discount = 0
	}

	q := Quote{
		BasePrice:          basePrice,
		Discount:           discount,
		UrgencyMultiplier:  UrgencyMultiplier(urgency),
		TimeSlotMultiplier: TimeSlotMultiplier(slot),
		LocationMultiplier: 1,
	}
	if e.IsPremiumArea(location) {
		q.LocationMultiplier = premiumAreaFactor
	}

	price := basePrice
	if discount > 0 {
		price *= 1 - discount
	}
	price *= q.UrgencyMultiplier
	price *= q.TimeSlotMultiplier
	price *= q.LocationMultiplier

	// float64(math.MaxInt64) rounds up to 2^63, so equality already overflows.
	if price >= math.MaxInt64 {
		return Quote{}, ErrPriceOutOfRange
	}
	q.TotalPrice = int64(math.Round(price))
	return q, nil
}

func (e *Engine) IsPremiumArea(location string) bool {
	loc := strings.ToLower(location)
	for _, area := range e.premiumAreas {
		if strings.Contains(loc, area) {
			return true
		}
	}
	return false
}

// UrgencyMultiplier defaults to 1 for unknown tiers.
func UrgencyMultiplier(u models.Urgency) float64 {
	switch u {
	case models.UrgencyUrgent:
		return urgentMultiplier
	case models.UrgencyEmergency:
		return emergencyMultiplier
	default:
		return 1
	}
}

func TimeSlotMultiplier(s models.TimeSlot) float64 {
	if s == models.SlotEvening || s == models.SlotWeekend {
		return offHoursMultiplier
	}
	return 1
}
