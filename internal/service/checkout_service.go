package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelstay/checkout-service/internal/models"
	"github.com/hotelstay/checkout-service/internal/repository"
	"github.com/hotelstay/checkout-service/pkg/rabbitmq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotCheckedIn    = errors.New("booking is not checked in")
)

// CheckoutResult carries the outcome of a committed settlement. A non-nil
// InvoicingError means the booking was checked out and the ledger accrued,
// but no invoice could be produced.
type CheckoutResult struct {
	Booking          *models.Booking
	SettlementAmount float64
	LoyaltyPoints    int
	Invoice          *models.Invoice
	InvoiceIssued    bool
	InvoicingError   error
}

// SettlementEvent is published to RabbitMQ after a checkout commits.
type SettlementEvent struct {
	BookingID        uint      `json:"booking_id"`
	CustomerID       uint      `json:"customer_id"`
	SettlementAmount float64   `json:"settlement_amount"`
	LoyaltyPoints    int       `json:"loyalty_points"`
	InvoiceNumber    string    `json:"invoice_number,omitempty"`
	CheckedOutAt     time.Time `json:"checked_out_at"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, bookingID uint) (*CheckoutResult, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, status *models.BookingStatus) ([]models.Booking, error)
	GetInvoice(ctx context.Context, bookingID uint) (*models.Invoice, error)
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
}

type checkoutService struct {
	bookingRepo  repository.BookingRepository
	customerRepo repository.CustomerRepository
	invoiceRepo  repository.InvoiceRepository
	publisher    *rabbitmq.Publisher
	logger       *zap.Logger
}

func NewCheckoutService(
	bookingRepo repository.BookingRepository,
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	publisher *rabbitmq.Publisher,
	logger *zap.Logger,
) CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &checkoutService{
		bookingRepo:  bookingRepo,
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// Checkout settles a booking in one transaction: status transition, ledger
// accrual, then best-effort invoicing. Any failure before invoicing rolls
// everything back; an invoicing failure is confined to its savepoint and
// reported on the result instead of aborting the settlement.
func (s *checkoutService) Checkout(ctx context.Context, bookingID uint) (*CheckoutResult, error) {
	var result *CheckoutResult

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// 1. Status-guarded transition. A single conditional UPDATE, not a
		// read-then-write: of two concurrent checkouts on the same booking
		// at most one affects a row, the other lands in the zero-rows path.
		booking, rows, err := s.bookingRepo.MarkCheckedOut(ctx, tx, bookingID, now)
		if err != nil {
			return fmt.Errorf("mark checked out: %w", err)
		}
		if rows == 0 {
			// Zero rows means unknown booking or wrong state; re-read only
			// to pick the right sentinel.
			if _, err := s.bookingRepo.FindByIDTx(ctx, tx, bookingID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBookingNotFound
				}
				return err
			}
			return ErrNotCheckedIn
		}

		// 2. Ledger accrual, computed from the row the guard just locked.
		amount := booking.SettlementAmount()
		points := models.LoyaltyPointsFor(amount)
		if err := s.customerRepo.Accrue(ctx, tx, booking.CustomerID, amount, points); err != nil {
			return fmt.Errorf("ledger accrual: %w", err)
		}

		result = &CheckoutResult{
			Booking:          booking,
			SettlementAmount: amount,
			LoyaltyPoints:    points,
		}

		// 3. Best-effort invoicing. A failed INSERT poisons the whole
		// postgres transaction, so invoicing runs under a savepoint: on
		// failure we roll back to it and the settlement still commits.
		if err := tx.SavePoint("invoicing").Error; err != nil {
			return fmt.Errorf("savepoint: %w", err)
		}
		invoice, issued, invErr := s.issueInvoice(ctx, tx, booking, now)
		if invErr != nil {
			if err := tx.RollbackTo("invoicing").Error; err != nil {
				return fmt.Errorf("rollback to savepoint: %w", err)
			}
			s.logger.Warn("invoice issuance failed, checkout committed without invoice",
				zap.Uint("booking_id", bookingID),
				zap.Error(invErr),
			)
			result.InvoicingError = invErr
			return nil
		}
		result.Invoice = invoice
		result.InvoiceIssued = issued
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishSettlement(result)

	return result, nil
}

// issueInvoice ensures at most one invoice per booking, creating one lazily.
func (s *checkoutService) issueInvoice(ctx context.Context, tx *gorm.DB, booking *models.Booking, now time.Time) (*models.Invoice, bool, error) {
	exists, err := s.invoiceRepo.ExistsForBooking(ctx, tx, booking.ID)
	if err != nil {
		return nil, false, fmt.Errorf("invoice lookup: %w", err)
	}
	if exists {
		return nil, false, nil
	}

	invoice := &models.Invoice{
		Number:          "INV-" + uuid.NewString(),
		BookingID:       booking.ID,
		BaseAmount:      booking.BaseAmount,
		ServicesTotal:   booking.ServicesTotal,
		ExtraCharges:    booking.ExtraCharges,
		DiscountApplied: booking.DiscountApplied,
		TotalAmount:     booking.SettlementAmount(),
		PaymentStatus:   models.PaymentPaid,
		IssuedAt:        now,
	}
	if err := s.invoiceRepo.Create(ctx, tx, invoice); err != nil {
		return nil, false, fmt.Errorf("invoice create: %w", err)
	}
	return invoice, true, nil
}

// publishSettlement notifies downstream services of a committed checkout.
// Best-effort: the settlement is already durable.
func (s *checkoutService) publishSettlement(result *CheckoutResult) {
	if s.publisher == nil {
		return
	}
	event := SettlementEvent{
		BookingID:        result.Booking.ID,
		CustomerID:       result.Booking.CustomerID,
		SettlementAmount: result.SettlementAmount,
		LoyaltyPoints:    result.LoyaltyPoints,
	}
	if result.Invoice != nil {
		event.InvoiceNumber = result.Invoice.Number
	}
	if result.Booking.CheckedOutAt != nil {
		event.CheckedOutAt = *result.Booking.CheckedOutAt
	}
	if err := s.publisher.Publish("booking.checked_out", event); err != nil {
		s.logger.Warn("failed to publish settlement event",
			zap.Uint("booking_id", result.Booking.ID),
			zap.Error(err),
		)
	}
}

func (s *checkoutService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

func (s *checkoutService) ListBookings(ctx context.Context, status *models.BookingStatus) ([]models.Booking, error) {
	return s.bookingRepo.FindByStatus(ctx, status)
}

func (s *checkoutService) GetInvoice(ctx context.Context, bookingID uint) (*models.Invoice, error) {
	return s.invoiceRepo.FindByBookingID(ctx, bookingID)
}

func (s *checkoutService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}
