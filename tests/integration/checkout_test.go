//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hotelstay/checkout-service/internal/models"
	"github.com/hotelstay/checkout-service/internal/repository"
	"github.com/hotelstay/checkout-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var customerSeq int

func createTestCustomer(t *testing.T) *models.Customer {
	t.Helper()
	customerSeq++
	customer := &models.Customer{
		FullName: fmt.Sprintf("Guest %03d", customerSeq),
		Email:    fmt.Sprintf("guest-%03d@example.com", customerSeq),
	}
	require.NoError(t, testDB.Create(customer).Error)
	return customer
}

func createTestBooking(t *testing.T, customerID uint, status models.BookingStatus, base, services, extra, discount float64) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		CustomerID:      customerID,
		RoomNumber:      "101",
		Status:          status,
		PaymentStatus:   models.PaymentPending,
		BaseAmount:      base,
		ServicesTotal:   services,
		ExtraCharges:    extra,
		DiscountApplied: discount,
	}
	require.NoError(t, testDB.Create(booking).Error)
	return booking
}

func newCheckoutService() service.CheckoutService {
	bookingRepo := repository.NewBookingRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	invoiceRepo := repository.NewInvoiceRepository(testDB)
	return service.NewCheckoutService(bookingRepo, customerRepo, invoiceRepo, nil, nil)
}

func reloadBooking(t *testing.T, id uint) *models.Booking {
	t.Helper()
	var booking models.Booking
	require.NoError(t, testDB.First(&booking, id).Error)
	return &booking
}

func reloadCustomer(t *testing.T, id uint) *models.Customer {
	t.Helper()
	var customer models.Customer
	require.NoError(t, testDB.First(&customer, id).Error)
	return &customer
}

// Test: settle base=100, services=25, extra=10, discount=15
// → settlement 120.00, 12 loyalty points, invoice for 120.00
func TestCheckout_Settlement(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 100.00, 25.00, 10.00, 15.00)
	svc := newCheckoutService()

	result, err := svc.Checkout(context.Background(), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, 120.00, result.SettlementAmount)
	assert.Equal(t, 12, result.LoyaltyPoints)
	assert.True(t, result.InvoiceIssued)
	assert.NoError(t, result.InvoicingError)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, 120.00, result.Invoice.TotalAmount)

	settled := reloadBooking(t, booking.ID)
	assert.Equal(t, models.StatusCheckedOut, settled.Status)
	assert.Equal(t, models.PaymentPaid, settled.PaymentStatus)
	assert.NotNil(t, settled.CheckedOutAt)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 120.00, ledger.TotalSpent)
	assert.Equal(t, 12, ledger.LoyaltyPoints)

	var invoiceCount int64
	testDB.Model(&models.Invoice{}).Where("booking_id = ?", booking.ID).Count(&invoiceCount)
	assert.Equal(t, int64(1), invoiceCount)
}

// Test: second checkout of the same booking → ErrNotCheckedIn,
// ledger reflects exactly one accrual
func TestCheckout_IdempotentGuard(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 200.00, 0, 0, 0)
	svc := newCheckoutService()

	_, err := svc.Checkout(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), booking.ID)
	assert.ErrorIs(t, err, service.ErrNotCheckedIn)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 200.00, ledger.TotalSpent, "ledger must reflect exactly one accrual")
	assert.Equal(t, 20, ledger.LoyaltyPoints)
}

// Test: 10 concurrent checkouts of the same booking → exactly one success,
// the rest deterministically rejected, single accrual
func TestCheckout_ConcurrentRace(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 150.00, 0, 0, 0)
	svc := newCheckoutService()

	attempts := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	rejectedCount := 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), booking.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successCount++
			case errors.Is(err, service.ErrNotCheckedIn):
				rejectedCount++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "exactly one concurrent checkout must win")
	assert.Equal(t, attempts-1, rejectedCount)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 150.00, ledger.TotalSpent)

	var invoiceCount int64
	testDB.Model(&models.Invoice{}).Where("booking_id = ?", booking.ID).Count(&invoiceCount)
	assert.Equal(t, int64(1), invoiceCount)
}

// Test: unknown booking → ErrBookingNotFound, zero side effects
func TestCheckout_UnknownBooking(t *testing.T) {
	cleanTables()
	svc := newCheckoutService()

	result, err := svc.Checkout(context.Background(), 424242)
	assert.ErrorIs(t, err, service.ErrBookingNotFound)
	assert.Nil(t, result)

	var invoiceCount int64
	testDB.Model(&models.Invoice{}).Count(&invoiceCount)
	assert.Equal(t, int64(0), invoiceCount)
}

// Test: reserved booking (never checked in) → ErrNotCheckedIn, untouched
func TestCheckout_NotCheckedIn(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusReserved, 100.00, 0, 0, 0)
	svc := newCheckoutService()

	_, err := svc.Checkout(context.Background(), booking.ID)
	assert.ErrorIs(t, err, service.ErrNotCheckedIn)

	unchanged := reloadBooking(t, booking.ID)
	assert.Equal(t, models.StatusReserved, unchanged.Status)
	assert.Equal(t, models.PaymentPending, unchanged.PaymentStatus)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 0.00, ledger.TotalSpent)
}

// Test: discount exceeding the charges clamps the settlement to zero
func TestCheckout_DiscountExceedsCharges(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 50.00, 0, 0, 80.00)
	svc := newCheckoutService()

	result, err := svc.Checkout(context.Background(), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.00, result.SettlementAmount)
	assert.Equal(t, 0, result.LoyaltyPoints)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 0.00, ledger.TotalSpent, "never a negative accrual")
	assert.Equal(t, 0, ledger.LoyaltyPoints)

	settled := reloadBooking(t, booking.ID)
	assert.Equal(t, models.StatusCheckedOut, settled.Status)
}

// failingCustomerRepo simulates a ledger outage during accrual.
type failingCustomerRepo struct {
	repository.CustomerRepository
}

func (f *failingCustomerRepo) Accrue(ctx context.Context, tx *gorm.DB, customerID uint, amount float64, points int) error {
	return errors.New("ledger unavailable")
}

// Test: an accrual failure rolls the whole transaction back — the status
// transition must not survive without the ledger update
func TestCheckout_RollbackOnAccrualFailure(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 100.00, 0, 0, 0)

	bookingRepo := repository.NewBookingRepository(testDB)
	customerRepo := &failingCustomerRepo{repository.NewCustomerRepository(testDB)}
	invoiceRepo := repository.NewInvoiceRepository(testDB)
	svc := service.NewCheckoutService(bookingRepo, customerRepo, invoiceRepo, nil, nil)

	result, err := svc.Checkout(context.Background(), booking.ID)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.NotErrorIs(t, err, service.ErrBookingNotFound)
	assert.NotErrorIs(t, err, service.ErrNotCheckedIn)

	unchanged := reloadBooking(t, booking.ID)
	assert.Equal(t, models.StatusCheckedIn, unchanged.Status, "status flip must be rolled back")
	assert.Equal(t, models.PaymentPending, unchanged.PaymentStatus)
	assert.Nil(t, unchanged.CheckedOutAt)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 0.00, ledger.TotalSpent)
	assert.Equal(t, 0, ledger.LoyaltyPoints)

	var invoiceCount int64
	testDB.Model(&models.Invoice{}).Count(&invoiceCount)
	assert.Equal(t, int64(0), invoiceCount)
}

// failingInvoiceRepo simulates an invoicing subsystem outage.
type failingInvoiceRepo struct {
	repository.InvoiceRepository
}

func (f *failingInvoiceRepo) Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return errors.New("invoicing subsystem down")
}

// Test: invoice issuance failure is best-effort — the checkout still commits
// with status flipped and ledger accrued, and the failure is reported
func TestCheckout_BestEffortInvoicing(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 100.00, 25.00, 10.00, 15.00)

	bookingRepo := repository.NewBookingRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	invoiceRepo := &failingInvoiceRepo{repository.NewInvoiceRepository(testDB)}
	svc := service.NewCheckoutService(bookingRepo, customerRepo, invoiceRepo, nil, nil)

	result, err := svc.Checkout(context.Background(), booking.ID)
	require.NoError(t, err, "invoicing failure must not fail the checkout")

	assert.Error(t, result.InvoicingError)
	assert.False(t, result.InvoiceIssued)
	assert.Nil(t, result.Invoice)
	assert.Equal(t, 120.00, result.SettlementAmount)

	settled := reloadBooking(t, booking.ID)
	assert.Equal(t, models.StatusCheckedOut, settled.Status)
	assert.Equal(t, models.PaymentPaid, settled.PaymentStatus)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 120.00, ledger.TotalSpent)
	assert.Equal(t, 12, ledger.LoyaltyPoints)

	var invoiceCount int64
	testDB.Model(&models.Invoice{}).Count(&invoiceCount)
	assert.Equal(t, int64(0), invoiceCount)
}

// Test: a pre-existing invoice is left alone — at most one per booking
func TestCheckout_ExistingInvoiceNotDuplicated(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	booking := createTestBooking(t, customer.ID, models.StatusCheckedIn, 100.00, 0, 0, 0)
	require.NoError(t, testDB.Create(&models.Invoice{
		Number:      "INV-preissued",
		BookingID:   booking.ID,
		BaseAmount:  100.00,
		TotalAmount: 100.00,
	}).Error)
	svc := newCheckoutService()

	result, err := svc.Checkout(context.Background(), booking.ID)
	require.NoError(t, err)

	assert.False(t, result.InvoiceIssued)
	assert.Nil(t, result.Invoice)
	assert.NoError(t, result.InvoicingError)

	var invoiceCount int64
	testDB.Model(&models.Invoice{}).Where("booking_id = ?", booking.ID).Count(&invoiceCount)
	assert.Equal(t, int64(1), invoiceCount)
}

// Test: accruals for different bookings of the same customer are cumulative
func TestCheckout_CumulativeAccrual(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	first := createTestBooking(t, customer.ID, models.StatusCheckedIn, 100.00, 0, 0, 0)
	second := createTestBooking(t, customer.ID, models.StatusCheckedIn, 45.00, 0, 0, 0)
	svc := newCheckoutService()

	_, err := svc.Checkout(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), second.ID)
	require.NoError(t, err)

	ledger := reloadCustomer(t, customer.ID)
	assert.Equal(t, 145.00, ledger.TotalSpent)
	assert.Equal(t, 14, ledger.LoyaltyPoints, "10 + 4 points across the two checkouts")
}

// Test: service charges only land on checked-in bookings
func TestAddServiceCharge_StatusGuard(t *testing.T) {
	cleanTables()
	customer := createTestCustomer(t)
	inHouse := createTestBooking(t, customer.ID, models.StatusCheckedIn, 100.00, 0, 0, 0)
	departed := createTestBooking(t, customer.ID, models.StatusCheckedOut, 100.00, 0, 0, 0)
	bookingRepo := repository.NewBookingRepository(testDB)

	rows, err := bookingRepo.AddServiceCharge(context.Background(), inHouse.ID, 30.00)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = bookingRepo.AddServiceCharge(context.Background(), departed.ID, 30.00)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "departed booking must not take charges")

	charged := reloadBooking(t, inHouse.ID)
	assert.Equal(t, 30.00, charged.ServicesTotal)
}
