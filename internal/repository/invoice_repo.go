package repository

import (
	"context"

	"github.com/hotelstay/checkout-service/internal/models"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	ExistsForBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (bool, error)
	Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error
	FindByBookingID(ctx context.Context, bookingID uint) (*models.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) ExistsForBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) FindByBookingID(ctx context.Context, bookingID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}
