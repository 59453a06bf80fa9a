package handler

import (
	"net/http"
	"strconv"

	"github.com/Eursukkul/quickfix-service/internal/dto"
	"github.com/Eursukkul/quickfix-service/internal/middleware"
	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc) {
	providerOnly := middleware.RequireRole(models.RoleProvider)

	e.POST("/api/pricing/quote", h.Quote, authn)

	bookings := e.Group("/api/bookings", authn)
	bookings.POST("", h.CreateBooking)
	bookings.GET("/customer/:id", h.ListCustomerBookings)
	bookings.GET("/available", h.ListAvailable, providerOnly)
	bookings.GET("/:id", h.GetBooking)
	bookings.GET("/:id/events", h.ListEvents)
	bookings.PUT("/:id/accept", h.AcceptBooking, providerOnly)
	bookings.PUT("/:id/status", h.UpdateStatus)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	scheduled, err := req.ParseScheduledDate()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	booking, err := h.svc.Create(c.Request().Context(), actor, service.CreateBookingInput{
		ServiceID:     req.ServiceID,
		Urgency:       req.Urgency,
		TimeSlot:      req.TimeSlot,
		Location:      req.Location,
		ScheduledDate: scheduled,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, dto.CreateBookingResponse{
		BookingID:  booking.ID,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
	})
}

func (h *BookingHandler) Quote(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req dto.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	quote, err := h.svc.Quote(c.Request().Context(), actor, service.QuoteInput{
		ServiceID: req.ServiceID,
		Urgency:   req.Urgency,
		TimeSlot:  req.TimeSlot,
		Location:  req.Location,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, quote)
}

func (h *BookingHandler) ListCustomerBookings(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	customerID, err := parseID(c, "id", "customer id")
	if err != nil {
		return err
	}

	views, err := h.svc.ListForCustomer(c.Request().Context(), actor, customerID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingViewResponses(views))
}

func (h *BookingHandler) ListAvailable(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	views, err := h.svc.ListAvailable(c.Request().Context(), actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingViewResponses(views))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "booking id")
	if err != nil {
		return err
	}

	booking, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListEvents(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "booking id")
	if err != nil {
		return err
	}

	var after uint64
	if s := c.QueryParam("after"); s != "" {
		if after, err = strconv.ParseUint(s, 10, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	events, err := h.svc.Events(c.Request().Context(), actor, id, uint(after), limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToEventResponses(events))
}

func (h *BookingHandler) AcceptBooking(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "booking id")
	if err != nil {
		return err
	}

	booking, err := h.svc.Accept(c.Request().Context(), actor, id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.StatusResponse{
		Message: "Booking accepted",
		Booking: dto.ToBookingResponse(booking),
	})
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "booking id")
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	booking, err := h.svc.SetStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.StatusResponse{
		Message: "Status updated",
		Booking: dto.ToBookingResponse(booking),
	})
}
