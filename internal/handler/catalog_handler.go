package handler

import (
	"net/http"

	"github.com/Eursukkul/quickfix-service/internal/dto"
	"github.com/Eursukkul/quickfix-service/internal/middleware"
	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/service"
	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc) {
	g := e.Group("/api/services")
	g.GET("", h.ListServices)
	g.GET("/:id", h.GetService)
	g.POST("", h.CreateService, authn, middleware.RequireRole(models.RoleAdmin))
}

func (h *CatalogHandler) ListServices(c echo.Context) error {
	services, err := h.svc.List(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, services)
}

func (h *CatalogHandler) GetService(c echo.Context) error {
	id, err := parseID(c, "id", "service id")
	if err != nil {
		return err
	}

	svc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, svc)
}

func (h *CatalogHandler) CreateService(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var req dto.CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	svc := &models.Service{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		BasePrice:   req.BasePrice,
	}
	if err := h.svc.Create(c.Request().Context(), actor, svc); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, svc)
}
