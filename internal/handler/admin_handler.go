package handler

import (
	"net/http"

	"github.com/Eursukkul/quickfix-service/internal/middleware"
	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	analytics service.AnalyticsService
}

func NewAdminHandler(analytics service.AnalyticsService) *AdminHandler {
	return &AdminHandler{analytics: analytics}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc) {
	admin := e.Group("/api/admin", authn, middleware.RequireRole(models.RoleAdmin))
	admin.GET("/analytics", h.Analytics)
}

func (h *AdminHandler) Analytics(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	summary, err := h.analytics.Summary(c.Request().Context(), actor)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}
