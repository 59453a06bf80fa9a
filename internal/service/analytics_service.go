package service

import (
	"context"
	"fmt"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/repository"
)

type AnalyticsSummary struct {
	TotalBookings   int64                          `json:"total_bookings"`
	Revenue         int64                          `json:"revenue"`
	ActiveProviders int64                          `json:"active_providers"`
	PendingBookings int64                          `json:"pending_bookings"`
	ByStatus        map[models.BookingStatus]int64 `json:"by_status"`
}

type AnalyticsService interface {
	Summary(ctx context.Context, actor Actor) (*AnalyticsSummary, error)
}

type analyticsService struct {
	bookings repository.BookingRepository
}

func NewAnalyticsService(bookings repository.BookingRepository) AnalyticsService {
	return &analyticsService{bookings: bookings}
}

func (s *analyticsService) Summary(ctx context.Context, actor Actor) (*AnalyticsSummary, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: analytics are admin only", ErrForbidden)
	}

	byStatus, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	revenue, err := s.bookings.SumRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	providers, err := s.bookings.CountActiveProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("count providers: %w", err)
	}

	summary := &AnalyticsSummary{
		Revenue:         revenue,
		ActiveProviders: providers,
		PendingBookings: byStatus[models.StatusPending],
		ByStatus:        byStatus,
	}
	for _, n := range byStatus {
		summary.TotalBookings += n
	}
	return summary, nil
}
