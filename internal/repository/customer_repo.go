package repository

import (
	"context"
	"fmt"

	"github.com/hotelstay/checkout-service/internal/models"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	Accrue(ctx context.Context, tx *gorm.DB, customerID uint, amount float64, points int) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Accrue adds settlement spend and loyalty points to the customer ledger.
// The addition happens in the UPDATE itself, so concurrent accruals for
// different bookings of the same customer never lose updates.
func (r *customerRepository) Accrue(ctx context.Context, tx *gorm.DB, customerID uint, amount float64, points int) error {
	res := tx.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"total_spent":    gorm.Expr("total_spent + ?", amount),
			"loyalty_points": gorm.Expr("loyalty_points + ?", points),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("accrue: customer %d not found", customerID)
	}
	return nil
}
