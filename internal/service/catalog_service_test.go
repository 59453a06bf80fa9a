package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Mock ServiceRepository ---

type mockServiceRepo struct {
	createFn   func(ctx context.Context, svc *models.Service) error
	findByIDFn func(ctx context.Context, id uint) (*models.Service, error)
	findAllFn  func(ctx context.Context) ([]models.Service, error)
}

func (m *mockServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	return m.createFn(ctx, svc)
}
func (m *mockServiceRepo) FindByID(ctx context.Context, id uint) (*models.Service, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockServiceRepo) FindAll(ctx context.Context) ([]models.Service, error) {
	return m.findAllFn(ctx)
}

var adminActor = Actor{ID: 1, Role: models.RoleAdmin}

func TestCatalogCreate_Success(t *testing.T) {
	repo := &mockServiceRepo{
		createFn: func(ctx context.Context, svc *models.Service) error {
			svc.ID = 7
			return nil
		},
	}
	svc := NewCatalogService(repo, zap.NewNop())

	entry := &models.Service{ID: 42, Name: "  Pest Control ", Category: models.CategoryCleaning, BasePrice: 550}
	err := svc.Create(context.Background(), adminActor, entry)

	assert.NoError(t, err)
	assert.Equal(t, uint(7), entry.ID)
	assert.Equal(t, "Pest Control", entry.Name)
}

func TestCatalogCreate_AdminOnly(t *testing.T) {
	svc := NewCatalogService(&mockServiceRepo{}, zap.NewNop())

	err := svc.Create(context.Background(), Actor{ID: 2, Role: models.RoleProvider},
		&models.Service{Name: "Roofing", Category: models.CategoryCarpentry, BasePrice: 900})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalogCreate_Validation(t *testing.T) {
	svc := NewCatalogService(&mockServiceRepo{}, zap.NewNop())

	for name, entry := range map[string]*models.Service{
		"no name":      {Category: models.CategoryPainting, BasePrice: 100},
		"bad category": {Name: "Gardening", Category: "Garden", BasePrice: 100},
		"zero price":   {Name: "Gardening", Category: models.CategoryCleaning},
		"negative":     {Name: "Gardening", Category: models.CategoryCleaning, BasePrice: -5},
		"too large":    {Name: "Gardening", Category: models.CategoryCleaning, BasePrice: 4e18},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Create(context.Background(), adminActor, entry), ErrValidation)
		})
	}
}

func TestCatalogGet_NotFound(t *testing.T) {
	repo := &mockServiceRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Service, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewCatalogService(repo, zap.NewNop())

	result, err := svc.Get(context.Background(), 99)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCatalogGet_RepoError(t *testing.T) {
	repo := &mockServiceRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Service, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := NewCatalogService(repo, zap.NewNop())

	_, err := svc.Get(context.Background(), 1)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCatalogList_EmptyIsNotNil(t *testing.T) {
	repo := &mockServiceRepo{
		findAllFn: func(ctx context.Context) ([]models.Service, error) {
			return nil, nil
		},
	}
	svc := NewCatalogService(repo, zap.NewNop())

	result, err := svc.List(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}
