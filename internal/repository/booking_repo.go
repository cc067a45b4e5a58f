package repository

import (
	"context"
	"time"

	"github.com/hotelstay/checkout-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByStatus(ctx context.Context, status *models.BookingStatus) ([]models.Booking, error)
	MarkCheckedOut(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (*models.Booking, int64, error)
	AddServiceCharge(ctx context.Context, id uint, amount float64) (int64, error)
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

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByStatus(ctx context.Context, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// MarkCheckedOut flips a booking to checked_out/paid in one status-guarded
// UPDATE. The guard serializes concurrent checkout attempts: of two racing
// callers at most one sees rowsAffected > 0. RETURNING hands back the row
// version the update locked, so settlement figures come from the same
// snapshot the transition applied to.
func (r *bookingRepository) MarkCheckedOut(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (*models.Booking, int64, error) {
	var booking models.Booking
	res := tx.WithContext(ctx).
		Model(&booking).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, models.StatusCheckedIn).
		Updates(map[string]interface{}{
			"status":         models.StatusCheckedOut,
			"payment_status": models.PaymentPaid,
			"checked_out_at": at,
		})
	if res.Error != nil {
		return nil, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, 0, nil
	}
	return &booking, res.RowsAffected, nil
}

// AddServiceCharge posts a room-service charge onto a checked-in booking.
// In-place addition, no read-then-write; charges against bookings that are
// not in-house affect zero rows.
func (r *bookingRepository) AddServiceCharge(ctx context.Context, id uint, amount float64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.StatusCheckedIn).
		Update("services_total", gorm.Expr("services_total + ?", amount))
	return res.RowsAffected, res.Error
}
