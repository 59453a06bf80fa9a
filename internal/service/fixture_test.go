package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Eursukkul/quickfix-service/config"
	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/notify"
	"github.com/Eursukkul/quickfix-service/internal/pricing"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"github.com/Eursukkul/quickfix-service/pkg/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	hub        *notify.Hub
	watcher    *notify.Subscriber
	events     repository.EventRepository
	dispatcher *Dispatcher
	bookings   BookingService

	customer  Actor
	other     Actor
	gold      Actor
	provider  Actor
	provider2 Actor
	admin     Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "quickfix.db")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.SeedCatalog(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{db: db}
	f.customer = f.addUser(t, "Asha", models.RoleCustomer, models.TierNone)
	f.other = f.addUser(t, "Ravi", models.RoleCustomer, models.TierNone)
	f.gold = f.addUser(t, "Meera", models.RoleCustomer, models.TierGold)
	f.provider = f.addUser(t, "Kiran", models.RoleProvider, models.TierNone)
	f.provider2 = f.addUser(t, "Sunil", models.RoleProvider, models.TierNone)
	f.admin = f.addUser(t, "Admin", models.RoleAdmin, models.TierNone)

	logger := zap.NewNop()
	f.hub = notify.NewHub(logger, 64)
	f.watcher = f.hub.Subscribe(f.admin.ID, string(models.RoleAdmin))
	f.events = repository.NewEventRepository(db)
	f.dispatcher = NewDispatcher(f.events, f.hub, logger)
	f.bookings = NewBookingService(
		repository.NewBookingRepository(db),
		repository.NewServiceRepository(db),
		repository.NewUserRepository(db),
		f.events,
		pricing.NewEngine(nil),
		f.dispatcher,
		logger,
	)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role, tier models.MembershipTier) Actor {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "unused",
		Role:         role,
		Membership:   tier,
	}
	require.NoError(t, f.db.Create(u).Error)
	return Actor{ID: u.ID, Role: role}
}

func (f *fixture) book(t *testing.T, actor Actor, serviceID uint) *models.Booking {
	t.Helper()
	b, err := f.bookings.Create(context.Background(), actor, CreateBookingInput{
		ServiceID:     serviceID,
		Urgency:       models.UrgencyNormal,
		TimeSlot:      models.SlotMorning,
		Location:      "Koti",
		ScheduledDate: time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) received() []notify.Notification {
	var out []notify.Notification
	for {
		select {
		case n := <-f.watcher.C():
			out = append(out, n)
		default:
			return out
		}
	}
}

func (f *fixture) reload(t *testing.T, id uint) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, f.db.First(&b, id).Error)
	return &b
}
