package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/Eursukkul/quickfix-service/internal/pricing"
	"github.com/Eursukkul/quickfix-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CatalogService interface {
	List(ctx context.Context) ([]models.Service, error)
	Get(ctx context.Context, id uint) (*models.Service, error)
	Create(ctx context.Context, actor Actor, svc *models.Service) error
}

type catalogService struct {
	repo   repository.ServiceRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.ServiceRepository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

func (s *catalogService) List(ctx context.Context) ([]models.Service, error) {
	services, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if services == nil {
		services = []models.Service{}
	}
	return services, nil
}

func (s *catalogService) Get(ctx context.Context, id uint) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return svc, nil
}

func (s *catalogService) Create(ctx context.Context, actor Actor, svc *models.Service) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can add services", ErrForbidden)
	}

	svc.ID = 0
	svc.Name = strings.TrimSpace(svc.Name)
	switch {
	case svc.Name == "":
		return validationError("name is required")
	case !svc.Category.IsValid():
		return validationError("unknown category %q", svc.Category)
	case math.IsNaN(svc.BasePrice) || math.IsInf(svc.BasePrice, 0) || svc.BasePrice <= 0:
		return validationError("base_price must be positive")
	case svc.BasePrice > pricing.MaxBasePrice:
		return validationError("base_price must not exceed %.0f", pricing.MaxBasePrice)
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	s.logger.Info("service added", zap.Uint("service_id", svc.ID), zap.String("name", svc.Name))
	return nil
}
