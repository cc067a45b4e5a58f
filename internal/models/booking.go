package models

import (
	"math"
	"time"
)

type BookingStatus string

const (
	StatusReserved   BookingStatus = "reserved"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCancelled  BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	CustomerID    uint          `gorm:"not null;index" json:"customer_id"`
	RoomNumber    string        `gorm:"type:varchar(10)" json:"room_number"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'reserved'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`

	BaseAmount      float64 `gorm:"type:decimal(10,2);not null;default:0" json:"base_amount"`
	ServicesTotal   float64 `gorm:"type:decimal(10,2);not null;default:0" json:"services_total"`
	ExtraCharges    float64 `gorm:"type:decimal(10,2);not null;default:0" json:"extra_charges"`
	DiscountApplied float64 `gorm:"type:decimal(10,2);not null;default:0" json:"discount_applied"`

	CheckInDate  *time.Time `json:"check_in_date,omitempty"`
	CheckOutDate *time.Time `json:"check_out_date,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// SettlementAmount is the net amount owed at checkout:
// base + services + extra charges - discount, never negative.
func (b *Booking) SettlementAmount() float64 {
	amount := b.BaseAmount + b.ServicesTotal + b.ExtraCharges - b.DiscountApplied
	if amount < 0 {
		return 0
	}
	return amount
}

// LoyaltyPointsFor converts a settlement amount into loyalty points:
// one point per 10 units spent, rounded down.
func LoyaltyPointsFor(amount float64) int {
	return int(math.Floor(amount / 10))
}
