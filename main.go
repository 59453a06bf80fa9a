package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/quickfix-service/config"
	"github.com/Eursukkul/quickfix-service/internal/consumer"
	"github.com/Eursukkul/quickfix-service/internal/handler"
	"github.com/Eursukkul/quickfix-service/internal/middleware"
	"github.com/Eursukkul/quickfix-service/internal/notify"
	"github.com/Eursukkul/quickfix-service/internal/pricing"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/Eursukkul/quickfix-service/pkg/auth"
	"github.com/Eursukkul/quickfix-service/pkg/database"
	"github.com/Eursukkul/quickfix-service/pkg/logger"
	"github.com/Eursukkul/quickfix-service/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := logger.New(cfg.Environment)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if cfg.SeedCatalog {
		if err := database.SeedCatalog(db); err != nil {
			lg.Fatal("failed to seed catalog", zap.Error(err))
		}
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		lg.Fatal("failed to seed admin", zap.Error(err))
	}

	// Notification bus: the local hub, or the broker when configured. With the
	// broker, every instance relays what it consumes into its own hub.
	hub := notify.NewHub(lg.Named("hub"), 0)
	var bus notify.Bus = hub
	var consumerDone <-chan struct{}
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, lg.Named("rabbitmq"))
		if err != nil {
			lg.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()

		queue := cfg.RabbitQueue + "." + uuid.NewString()[:8]
		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, queue,
			[]string{notify.BookingKeys, notify.TrackingKeys}, lg.Named("rabbitmq"))
		if err != nil {
			lg.Fatal("failed to declare notification queue", zap.Error(err))
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume(ctx)
		if err != nil {
			lg.Fatal("failed to start consuming", zap.Error(err))
		}
		consumerDone = consumer.NewNotificationConsumer(hub, lg.Named("consumer")).Start(ctx, msgs)
		bus = notify.NewBrokerBus(publisher)
	}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL())
	dispatcher := service.NewDispatcher(eventRepo, bus, lg.Named("outbox"))
	bookingSvc := service.NewBookingService(
		bookingRepo, serviceRepo, userRepo, eventRepo,
		pricing.NewEngine(cfg.PremiumAreas), dispatcher, lg.Named("booking"),
	)
	catalogSvc := service.NewCatalogService(serviceRepo, lg.Named("catalog"))
	accountSvc := service.NewAccountService(userRepo, tokens, lg.Named("account"))
	analyticsSvc := service.NewAnalyticsService(bookingRepo)

	relay := service.NewOutboxRelay(dispatcher, eventRepo, cfg.OutboxRelayInterval, cfg.OutboxGrace, lg.Named("relay"))
	relay.Start(ctx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(lg)
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(lg.Named("http")))
	e.Use(echoMw.Recover())
	e.Use(echoMw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "quickfix-service"})
	})

	authn := middleware.Authenticate(tokens)
	handler.NewAccountHandler(accountSvc).RegisterRoutes(e, authn)
	handler.NewCatalogHandler(catalogSvc).RegisterRoutes(e, authn)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e, authn)
	handler.NewAdminHandler(analyticsSvc).RegisterRoutes(e, authn)
	handler.NewWSHandler(ctx, hub, bus, bookingSvc, tokens, lg.Named("ws")).RegisterRoutes(e)

	go func() {
		lg.Info("QuickFix service starting", zap.String("port", cfg.ServerPort), zap.String("env", cfg.Environment))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown", zap.Error(err))
	}
	relay.Stop()
	if consumerDone != nil {
		<-consumerDone
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
