package models

import "time"

type Customer struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"not null" json:"full_name"`
	Email    string `gorm:"uniqueIndex" json:"email"`

	// Ledger balances. Monotonically non-decreasing, mutated only as a
	// side effect of a committed checkout.
	TotalSpent    float64 `gorm:"type:decimal(12,2);not null;default:0" json:"total_spent"`
	LoyaltyPoints int     `gorm:"not null;default:0" json:"loyalty_points"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
