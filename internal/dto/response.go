package dto

import (
	"time"

	"github.com/hotelstay/checkout-service/internal/models"
	"github.com/hotelstay/checkout-service/internal/service"
)

type BookingResponse struct {
	ID              uint                 `json:"id"`
	CustomerID      uint                 `json:"customer_id"`
	RoomNumber      string               `json:"room_number"`
	Status          models.BookingStatus `json:"status"`
	PaymentStatus   models.PaymentStatus `json:"payment_status"`
	BaseAmount      float64              `json:"base_amount"`
	ServicesTotal   float64              `json:"services_total"`
	ExtraCharges    float64              `json:"extra_charges"`
	DiscountApplied float64              `json:"discount_applied"`
	CheckedOutAt    *time.Time           `json:"checked_out_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

type CheckoutResponse struct {
	Booking          BookingResponse  `json:"booking"`
	SettlementAmount float64          `json:"settlement_amount"`
	LoyaltyPoints    int              `json:"loyalty_points_earned"`
	Invoice          *InvoiceResponse `json:"invoice,omitempty"`
	InvoiceIssued    bool             `json:"invoice_issued"`
	InvoicingError   string           `json:"invoicing_error,omitempty"`
}

type InvoiceResponse struct {
	ID              uint                 `json:"id"`
	Number          string               `json:"number"`
	BookingID       uint                 `json:"booking_id"`
	BaseAmount      float64              `json:"base_amount"`
	ServicesTotal   float64              `json:"services_total"`
	ExtraCharges    float64              `json:"extra_charges"`
	DiscountApplied float64              `json:"discount_applied"`
	TotalAmount     float64              `json:"total_amount"`
	PaymentStatus   models.PaymentStatus `json:"payment_status"`
	IssuedAt        time.Time            `json:"issued_at"`
}

type CustomerResponse struct {
	ID            uint    `json:"id"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	TotalSpent    float64 `json:"total_spent"`
	LoyaltyPoints int     `json:"loyalty_points"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		CustomerID:      b.CustomerID,
		RoomNumber:      b.RoomNumber,
		Status:          b.Status,
		PaymentStatus:   b.PaymentStatus,
		BaseAmount:      b.BaseAmount,
		ServicesTotal:   b.ServicesTotal,
		ExtraCharges:    b.ExtraCharges,
		DiscountApplied: b.DiscountApplied,
		CheckedOutAt:    b.CheckedOutAt,
		CreatedAt:       b.CreatedAt,
	}
}

func ToInvoiceResponse(inv *models.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID,
		Number:          inv.Number,
		BookingID:       inv.BookingID,
		BaseAmount:      inv.BaseAmount,
		ServicesTotal:   inv.ServicesTotal,
		ExtraCharges:    inv.ExtraCharges,
		DiscountApplied: inv.DiscountApplied,
		TotalAmount:     inv.TotalAmount,
		PaymentStatus:   inv.PaymentStatus,
		IssuedAt:        inv.IssuedAt,
	}
}

func ToCustomerResponse(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:            c.ID,
		FullName:      c.FullName,
		Email:         c.Email,
		TotalSpent:    c.TotalSpent,
		LoyaltyPoints: c.LoyaltyPoints,
	}
}

func ToCheckoutResponse(r *service.CheckoutResult) CheckoutResponse {
	resp := CheckoutResponse{
		Booking:          ToBookingResponse(r.Booking),
		SettlementAmount: r.SettlementAmount,
		LoyaltyPoints:    r.LoyaltyPoints,
		InvoiceIssued:    r.InvoiceIssued,
	}
	if r.Invoice != nil {
		inv := ToInvoiceResponse(r.Invoice)
		resp.Invoice = &inv
	}
	if r.InvoicingError != nil {
		resp.InvoicingError = r.InvoicingError.Error()
	}
	return resp
}
