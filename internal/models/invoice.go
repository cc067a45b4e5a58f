package models

import "time"

type Invoice struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Number    string `gorm:"type:varchar(48);uniqueIndex;not null" json:"number"`
	BookingID uint   `gorm:"uniqueIndex;not null" json:"booking_id"`

	BaseAmount      float64 `gorm:"type:decimal(10,2);not null;default:0" json:"base_amount"`
	ServicesTotal   float64 `gorm:"type:decimal(10,2);not null;default:0" json:"services_total"`
	ExtraCharges    float64 `gorm:"type:decimal(10,2);not null;default:0" json:"extra_charges"`
	DiscountApplied float64 `gorm:"type:decimal(10,2);not null;default:0" json:"discount_applied"`
	TotalAmount     float64 `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	IssuedAt      time.Time     `json:"issued_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
