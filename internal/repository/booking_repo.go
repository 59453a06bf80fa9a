package repository

import (
	"context"

	"github.com/Eursukkul/quickfix-service/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.BookingView, error)
	FindPending(ctx context.Context) ([]models.BookingView, error)
	AcceptIfPending(ctx context.Context, tx *gorm.DB, bookingID, providerID uint) (bool, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, bookingID uint, from, to models.BookingStatus) (bool, error)
	CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error)
	SumRevenue(ctx context.Context) (int64, error)
	CountActiveProviders(ctx context.Context) (int64, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) listViews(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings").
		Select("bookings.*, services.name AS service_name, services.category AS service_category").
		Joins("JOIN services ON services.id = bookings.service_id").
		Order("bookings.created_at DESC, bookings.id DESC")
}

func (r *bookingRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.BookingView, error) {
	var views []models.BookingView
	if err := r.listViews(ctx).Where("bookings.customer_id = ?", customerID).Find(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

func (r *bookingRepository) FindPending(ctx context.Context) ([]models.BookingView, error) {
	var views []models.BookingView
	if err := r.listViews(ctx).Where("bookings.status = ?", models.StatusPending).Find(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

// AcceptIfPending assigns the provider only while the booking is still pending.
// It reports false when no row matched.
func (r *bookingRepository) AcceptIfPending(ctx context.Context, tx *gorm.DB, bookingID, providerID uint) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, models.StatusPending).
		Updates(map[string]any{
			"provider_id": providerID,
			"status":      models.StatusAccepted,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// TransitionStatus is a compare-and-swap on status; false means the row was
// missing or no longer in `from`.
func (r *bookingRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, bookingID uint, from, to models.BookingStatus) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, from).
		Updates(map[string]any{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *bookingRepository) CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	var rows []struct {
		Status models.BookingStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.BookingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumRevenue totals the price of completed bookings.
func (r *bookingRepository) SumRevenue(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", models.StatusCompleted).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *bookingRepository) CountActiveProviders(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("provider_id IS NOT NULL AND status IN ?", []models.BookingStatus{models.StatusAccepted, models.StatusInProgress}).
		Distinct("provider_id").
		Count(&count).Error
	return count, err
}
