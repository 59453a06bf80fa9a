//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/notify"
	"github.com/Eursukkul/quickfix-service/internal/pricing"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/Eursukkul/quickfix-service/pkg/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "quickfix_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	dropTables()
	if err := database.Migrate(testDB); err != nil {
		log.Fatalf("failed to migrate test database: %v", err)
	}
	if err := database.SeedCatalog(testDB); err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}

	code := m.Run()

	dropTables()
	os.Exit(code)
}

func dropTables() {
	testDB.Exec("DROP TABLE IF EXISTS booking_events")
	testDB.Exec("DROP TABLE IF EXISTS bookings")
	testDB.Exec("DROP TABLE IF EXISTS services")
	testDB.Exec("DROP TABLE IF EXISTS users")
}

func cleanTables() {
	testDB.Exec("DELETE FROM booking_events")
	testDB.Exec("DELETE FROM bookings")
	testDB.Exec("DELETE FROM users")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newBookingService(hub *notify.Hub) service.BookingService {
	events := repository.NewEventRepository(testDB)
	return service.NewBookingService(
		repository.NewBookingRepository(testDB),
		repository.NewServiceRepository(testDB),
		repository.NewUserRepository(testDB),
		events,
		pricing.NewEngine(nil),
		service.NewDispatcher(events, hub, zap.NewNop()),
		zap.NewNop(),
	)
}

func createUser(t *testing.T, email string, role models.Role) service.Actor {
	t.Helper()
	u := &models.User{Name: email, Email: email, PasswordHash: "x", Role: role, Membership: models.TierNone}
	require.NoError(t, testDB.Create(u).Error)
	return service.Actor{ID: u.ID, Role: role}
}
