package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/pricing"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

type CreateBookingInput struct {
	ServiceID     uint
	Urgency       models.Urgency
	TimeSlot      models.TimeSlot
	Location      string
	ScheduledDate time.Time
}

type QuoteInput struct {
	ServiceID uint
	Urgency   models.Urgency
	TimeSlot  models.TimeSlot
	Location  string
}

type BookingService interface {
	Create(ctx context.Context, actor Actor, in CreateBookingInput) (*models.Booking, error)
	Quote(ctx context.Context, actor Actor, in QuoteInput) (*pricing.Quote, error)
	Accept(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error)
	SetStatus(ctx context.Context, actor Actor, bookingID uint, status models.BookingStatus) (*models.Booking, error)
	Get(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error)
	ListForCustomer(ctx context.Context, actor Actor, customerID uint) ([]models.BookingView, error)
	ListAvailable(ctx context.Context, actor Actor) ([]models.BookingView, error)
	Events(ctx context.Context, actor Actor, bookingID, after uint, limit int) ([]models.BookingEvent, error)
	Replay(ctx context.Context, actor Actor, after uint, limit int) ([]models.BookingEvent, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	serviceRepo repository.ServiceRepository
	userRepo    repository.UserRepository
	eventRepo   repository.EventRepository
	engine      *pricing.Engine
	dispatcher  *Dispatcher
	logger      *zap.Logger
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	serviceRepo repository.ServiceRepository,
	userRepo repository.UserRepository,
	eventRepo repository.EventRepository,
	engine *pricing.Engine,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		engine:      engine,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

func normalizeUrgency(u models.Urgency) models.Urgency {
	switch u {
	case models.UrgencyUrgent, models.UrgencyEmergency:
		return u
	}
	return models.UrgencyNormal
}

func validSlot(s models.TimeSlot) bool {
	switch s {
	case models.SlotMorning, models.SlotAfternoon, models.SlotEvening, models.SlotWeekend:
		return true
	}
	return false
}

// priceFor loads the service and the caller's tier, then runs the engine.
// Create and Quote both go through here so the two prices cannot drift.
func (s *bookingService) priceFor(ctx context.Context, actor Actor, serviceID uint, urgency models.Urgency, slot models.TimeSlot, location string) (*pricing.Quote, error) {
	svc, err := s.serviceRepo.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("load service %d: %w", serviceID, err)
	}

	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", actor.ID, err)
	}

	q, err := s.engine.Quote(svc.BasePrice, urgency, slot, location, user.Membership.Discount())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &q, nil
}

func (s *bookingService) Create(ctx context.Context, actor Actor, in CreateBookingInput) (*models.Booking, error) {
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.ServiceID == 0:
		return nil, validationError("service_id is required")
	case !validSlot(in.TimeSlot):
		return nil, validationError("time_slot must be one of morning, afternoon, evening, weekend")
	case in.Location == "":
		return nil, validationError("location is required")
	case in.ScheduledDate.IsZero():
		return nil, validationError("scheduled_date is required")
	}
	in.Urgency = normalizeUrgency(in.Urgency)

	quote, err := s.priceFor(ctx, actor, in.ServiceID, in.Urgency, in.TimeSlot, in.Location)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		CustomerID:    actor.ID,
		ServiceID:     in.ServiceID,
		Urgency:       in.Urgency,
		TimeSlot:      in.TimeSlot,
		Location:      in.Location,
		ScheduledDate: in.ScheduledDate,
		TotalPrice:    quote.TotalPrice,
		Status:        models.StatusPending,
		Version:       1,
	}

	var event *models.BookingEvent
	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		event, err = newBookingEvent(booking, models.EventBookingCreated, models.BookingCreatedPayload{
			BookingID:  booking.ID,
			CustomerID: booking.CustomerID,
			ServiceID:  booking.ServiceID,
		})
		if err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, tx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("customer_id", booking.CustomerID),
		zap.Uint("service_id", booking.ServiceID),
		zap.Int64("total_price", booking.TotalPrice))

	s.dispatcher.Dispatch(ctx, event)
	return booking, nil
}

func (s *bookingService) Quote(ctx context.Context, actor Actor, in QuoteInput) (*pricing.Quote, error) {
	if in.ServiceID == 0 {
		return nil, validationError("service_id is required")
	}
	if in.TimeSlot != "" && !validSlot(in.TimeSlot) {
		return nil, validationError("time_slot must be one of morning, afternoon, evening, weekend")
	}
	return s.priceFor(ctx, actor, in.ServiceID, normalizeUrgency(in.Urgency), in.TimeSlot, strings.TrimSpace(in.Location))
}

func (s *bookingService) Accept(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error) {
	if !actor.IsProvider() {
		return nil, fmt.Errorf("%w: only providers can accept bookings", ErrForbidden)
	}

	var (
		booking *models.Booking
		event   *models.BookingEvent
	)
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accepted, err := s.bookingRepo.AcceptIfPending(ctx, tx, bookingID, actor.ID)
		if err != nil {
			return err
		}
		if !accepted {
			if _, err := s.bookingRepo.FindByID(ctx, tx, bookingID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBookingNotFound
				}
				return err
			}
			return ErrAlreadyAccepted
		}

		booking, err = s.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		event, err = newBookingEvent(booking, models.EventBookingStatusChanged, models.StatusChangedPayload{
			BookingID:  booking.ID,
			Status:     booking.Status,
			ProviderID: booking.ProviderID,
		})
		if err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, tx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("accept booking %d: %w", bookingID, err)
	}

	s.logger.Info("booking accepted",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("provider_id", actor.ID),
		zap.Int("version", booking.Version))

	s.dispatcher.Dispatch(ctx, event)
	return booking, nil
}

func (s *bookingService) SetStatus(ctx context.Context, actor Actor, bookingID uint, status models.BookingStatus) (*models.Booking, error) {
	if !status.IsValid() {
		return nil, validationError("unknown status %q", status)
	}
	if status == models.StatusAccepted {
		return nil, validationError("use accept to assign a provider")
	}

	var (
		booking *models.Booking
		event   *models.BookingEvent
	)
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		allowed := actor.IsAdmin() ||
			actor.isProviderOf(current) ||
			(status == models.StatusCancelled && current.CustomerID == actor.ID)
		if !allowed {
			return fmt.Errorf("%w: not allowed to set status of booking %d", ErrForbidden, bookingID)
		}

		if !current.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
		}

		// Guarded on the status we just read; losing a race reads as a conflict.
		ok, err := s.bookingRepo.TransitionStatus(ctx, tx, bookingID, current.Status, status)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
		}

		booking, err = s.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		event, err = newBookingEvent(booking, models.EventBookingStatusChanged, models.StatusChangedPayload{
			BookingID: booking.ID,
			Status:    booking.Status,
		})
		if err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, tx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("set booking %d status: %w", bookingID, err)
	}

	s.logger.Info("booking status changed",
		zap.Uint("booking_id", booking.ID),
		zap.String("status", string(booking.Status)),
		zap.Uint("actor_id", actor.ID),
		zap.Int("version", booking.Version))

	s.dispatcher.Dispatch(ctx, event)
	return booking, nil
}

func (s *bookingService) visibleBooking(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, s.bookingRepo.GetDB(), bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if !actor.canView(booking) {
		return nil, fmt.Errorf("%w: booking %d is not visible to this user", ErrForbidden, bookingID)
	}
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, actor Actor, bookingID uint) (*models.Booking, error) {
	booking, err := s.visibleBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	svc, err := s.serviceRepo.FindByID(ctx, booking.ServiceID)
	if err == nil {
		booking.Service = svc
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load service %d: %w", booking.ServiceID, err)
	}
	return booking, nil
}

func (s *bookingService) ListForCustomer(ctx context.Context, actor Actor, customerID uint) ([]models.BookingView, error) {
	if !actor.IsAdmin() && actor.ID != customerID {
		return nil, fmt.Errorf("%w: cannot list another customer's bookings", ErrForbidden)
	}

	views, err := s.bookingRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer bookings: %w", err)
	}
	if views == nil {
		views = []models.BookingView{}
	}
	return views, nil
}

func (s *bookingService) ListAvailable(ctx context.Context, actor Actor) ([]models.BookingView, error) {
	if !actor.IsProvider() {
		return nil, fmt.Errorf("%w: only providers can list available bookings", ErrForbidden)
	}

	views, err := s.bookingRepo.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available bookings: %w", err)
	}
	if views == nil {
		views = []models.BookingView{}
	}
	return views, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultEventLimit
	}
	return min(limit, maxEventLimit)
}

func (s *bookingService) Events(ctx context.Context, actor Actor, bookingID, after uint, limit int) ([]models.BookingEvent, error) {
	if _, err := s.visibleBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.FindByBooking(ctx, bookingID, after, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list booking events: %w", err)
	}
	if events == nil {
		events = []models.BookingEvent{}
	}
	return events, nil
}

// Replay lists events after the cursor: a customer's own bookings, or every
// booking for providers and admins.
func (s *bookingService) Replay(ctx context.Context, actor Actor, after uint, limit int) ([]models.BookingEvent, error) {
	var customerID *uint
	if actor.IsCustomer() {
		customerID = &actor.ID
	}

	events, err := s.eventRepo.FindSince(ctx, after, customerID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("replay events: %w", err)
	}
	return events, nil
}
