//go:build integration

package integration

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/notify"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleInput() service.CreateBookingInput {
	return service.CreateBookingInput{
		ServiceID:     1,
		Urgency:       models.UrgencyEmergency,
		TimeSlot:      models.SlotEvening,
		Location:      "Jubilee Hills",
		ScheduledDate: time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC),
	}
}

// 30 providers race to accept the same booking: exactly one wins and the
// rest see a conflict.
func TestConcurrentAccept(t *testing.T) {
	cleanTables()
	svc := newBookingService(notify.NewHub(zap.NewNop(), 64))
	customer := createUser(t, "customer@example.com", models.RoleCustomer)

	booking, err := svc.Create(t.Context(), customer, sampleInput())
	require.NoError(t, err)
	require.Equal(t, int64(1560), booking.TotalPrice)

	const total = 30
	providers := make([]service.Actor, total)
	for i := range providers {
		providers[i] = createUser(t, fmt.Sprintf("provider-%02d@example.com", i), models.RoleProvider)
	}

	var wg sync.WaitGroup
	winners := make(chan uint, total)
	errs := make(chan error, total)

	wg.Add(total)
	for _, p := range providers {
		go func(p service.Actor) {
			defer wg.Done()
			if _, err := svc.Accept(t.Context(), p, booking.ID); err != nil {
				errs <- err
				return
			}
			winners <- p.ID
		}(p)
	}
	wg.Wait()
	close(winners)
	close(errs)

	require.Len(t, winners, 1)
	winner := <-winners

	conflicts := 0
	for err := range errs {
		if errors.Is(err, service.ErrConflict) {
			conflicts++
		} else {
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, total-1, conflicts)

	var stored models.Booking
	require.NoError(t, testDB.First(&stored, booking.ID).Error)
	require.NotNil(t, stored.ProviderID)
	assert.Equal(t, winner, *stored.ProviderID)
	assert.Equal(t, models.StatusAccepted, stored.Status)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, int64(1560), stored.TotalPrice)

	var events int64
	require.NoError(t, testDB.Model(&models.BookingEvent{}).Where("booking_id = ?", booking.ID).Count(&events).Error)
	assert.Equal(t, int64(2), events, "one created and one accepted event")
}

// Concurrent status writers on the same booking: the guarded update lets
// exactly one of them move it.
func TestConcurrentStatusChange(t *testing.T) {
	cleanTables()
	svc := newBookingService(notify.NewHub(zap.NewNop(), 64))
	customer := createUser(t, "owner@example.com", models.RoleCustomer)
	provider := createUser(t, "pro@example.com", models.RoleProvider)
	admin := createUser(t, "admin@example.com", models.RoleAdmin)

	booking, err := svc.Create(t.Context(), customer, sampleInput())
	require.NoError(t, err)
	_, err = svc.Accept(t.Context(), provider, booking.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.SetStatus(t.Context(), provider, booking.ID, models.StatusInProgress)
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.SetStatus(t.Context(), admin, booking.ID, models.StatusCancelled)
		results <- err
	}()
	wg.Wait()
	close(results)

	var ok, conflict int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, service.ErrConflict):
			conflict++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	var stored models.Booking
	require.NoError(t, testDB.First(&stored, booking.ID).Error)
	assert.Equal(t, int64(1560), stored.TotalPrice)

	// in_progress -> cancelled is legal, so both may succeed in sequence;
	// what must never happen is a lost update.
	assert.Equal(t, 2, ok+conflict)
	assert.Equal(t, 2+ok, stored.Version)
}

func TestListAvailable_NewestFirst(t *testing.T) {
	cleanTables()
	svc := newBookingService(notify.NewHub(zap.NewNop(), 64))
	customer := createUser(t, "lister@example.com", models.RoleCustomer)
	provider := createUser(t, "scout@example.com", models.RoleProvider)

	var ids []uint
	for i := 0; i < 5; i++ {
		b, err := svc.Create(t.Context(), customer, sampleInput())
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	_, err := svc.Accept(t.Context(), provider, ids[2])
	require.NoError(t, err)

	views, err := svc.ListAvailable(t.Context(), provider)
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Equal(t, ids[4], views[0].ID)
	assert.Equal(t, ids[0], views[3].ID)
	for _, v := range views {
		assert.Equal(t, "Electrical Repair", v.ServiceName)
	}
}
