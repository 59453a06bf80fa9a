package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/Eursukkul/quickfix-service/internal/middleware"
	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/pricing"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/Eursukkul/quickfix-service/pkg/auth"
	"github.com/labstack/echo/v4"
)

// --- Mock BookingService ---

type mockBookingService struct {
	createFn          func(ctx context.Context, actor service.Actor, in service.CreateBookingInput) (*models.Booking, error)
	quoteFn           func(ctx context.Context, actor service.Actor, in service.QuoteInput) (*pricing.Quote, error)
	acceptFn          func(ctx context.Context, actor service.Actor, bookingID uint) (*models.Booking, error)
	setStatusFn       func(ctx context.Context, actor service.Actor, bookingID uint, status models.BookingStatus) (*models.Booking, error)
	getFn             func(ctx context.Context, actor service.Actor, bookingID uint) (*models.Booking, error)
	listForCustomerFn func(ctx context.Context, actor service.Actor, customerID uint) ([]models.BookingView, error)
	listAvailableFn   func(ctx context.Context, actor service.Actor) ([]models.BookingView, error)
	eventsFn          func(ctx context.Context, actor service.Actor, bookingID, after uint, limit int) ([]models.BookingEvent, error)
	replayFn          func(ctx context.Context, actor service.Actor, after uint, limit int) ([]models.BookingEvent, error)
}

func (m *mockBookingService) Create(ctx context.Context, actor service.Actor, in service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, actor, in)
}
func (m *mockBookingService) Quote(ctx context.Context, actor service.Actor, in service.QuoteInput) (*pricing.Quote, error) {
	return m.quoteFn(ctx, actor, in)
}
func (m *mockBookingService) Accept(ctx context.Context, actor service.Actor, bookingID uint) (*models.Booking, error) {
	return m.acceptFn(ctx, actor, bookingID)
}
func (m *mockBookingService) SetStatus(ctx context.Context, actor service.Actor, bookingID uint, status models.BookingStatus) (*models.Booking, error) {
	return m.setStatusFn(ctx, actor, bookingID, status)
}
func (m *mockBookingService) Get(ctx context.Context, actor service.Actor, bookingID uint) (*models.Booking, error) {
	return m.getFn(ctx, actor, bookingID)
}
func (m *mockBookingService) ListForCustomer(ctx context.Context, actor service.Actor, customerID uint) ([]models.BookingView, error) {
	return m.listForCustomerFn(ctx, actor, customerID)
}
func (m *mockBookingService) ListAvailable(ctx context.Context, actor service.Actor) ([]models.BookingView, error) {
	return m.listAvailableFn(ctx, actor)
}
func (m *mockBookingService) Events(ctx context.Context, actor service.Actor, bookingID, after uint, limit int) ([]models.BookingEvent, error) {
	return m.eventsFn(ctx, actor, bookingID, after, limit)
}
func (m *mockBookingService) Replay(ctx context.Context, actor service.Actor, after uint, limit int) ([]models.BookingEvent, error) {
	if m.replayFn == nil {
		return nil, nil
	}
	return m.replayFn(ctx, actor, after, limit)
}

// --- Mock CatalogService ---

type mockCatalogService struct {
	listFn   func(ctx context.Context) ([]models.Service, error)
	getFn    func(ctx context.Context, id uint) (*models.Service, error)
	createFn func(ctx context.Context, actor service.Actor, svc *models.Service) error
}

func (m *mockCatalogService) List(ctx context.Context) ([]models.Service, error) {
	return m.listFn(ctx)
}
func (m *mockCatalogService) Get(ctx context.Context, id uint) (*models.Service, error) {
	return m.getFn(ctx, id)
}
func (m *mockCatalogService) Create(ctx context.Context, actor service.Actor, svc *models.Service) error {
	return m.createFn(ctx, actor, svc)
}

// --- Mock AccountService ---

type mockAccountService struct {
	registerFn      func(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	loginFn         func(ctx context.Context, email, password string) (*service.Session, error)
	meFn            func(ctx context.Context, actor service.Actor) (*models.User, error)
	setMembershipFn func(ctx context.Context, actor service.Actor, tier models.MembershipTier) (*models.User, error)
}

func (m *mockAccountService) Register(ctx context.Context, in service.RegisterInput) (*service.Session, error) {
	return m.registerFn(ctx, in)
}
func (m *mockAccountService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	return m.loginFn(ctx, email, password)
}
func (m *mockAccountService) Me(ctx context.Context, actor service.Actor) (*models.User, error) {
	return m.meFn(ctx, actor)
}
func (m *mockAccountService) SetMembership(ctx context.Context, actor service.Actor, tier models.MembershipTier) (*models.User, error) {
	return m.setMembershipFn(ctx, actor, tier)
}
func (m *mockAccountService) Plans() []models.MembershipPlan {
	return models.MembershipPlans()
}

// --- Mock AnalyticsService ---

type mockAnalyticsService struct {
	summaryFn func(ctx context.Context, actor service.Actor) (*service.AnalyticsSummary, error)
}

func (m *mockAnalyticsService) Summary(ctx context.Context, actor service.Actor) (*service.AnalyticsSummary, error) {
	return m.summaryFn(ctx, actor)
}

// --- helpers ---

var (
	customer = service.Actor{ID: 1, Role: models.RoleCustomer}
	provider = service.Actor{ID: 2, Role: models.RoleProvider}
	admin    = service.Actor{ID: 3, Role: models.RoleAdmin}
)

// newContext builds a handler context; params alternate name, value.
func newContext(method, target, body string, actor *service.Actor, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if actor != nil {
		authenticate(c, *actor)
	}
	return c, rec
}

var contextTokens = auth.NewTokenManager("handler-test-secret", time.Hour)

// authenticate runs the real bearer middleware so handlers see the actor the
// same way they do in production.
func authenticate(c echo.Context, actor service.Actor) {
	token, err := contextTokens.Issue(actor.ID, string(actor.Role))
	if err != nil {
		panic(err)
	}
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	pass := func(echo.Context) error { return nil }
	if err := middleware.Authenticate(contextTokens)(pass)(c); err != nil {
		panic(err)
	}
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
