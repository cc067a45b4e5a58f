package consumer

import (
	"context"
	"encoding/json"

	"github.com/hotelstay/checkout-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ServiceCharge is a room-service posting from the charges queue.
type ServiceCharge struct {
	BookingID   uint    `json:"booking_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type ChargeConsumer struct {
	bookingRepo repository.BookingRepository
	logger      *zap.Logger
}

func NewChargeConsumer(bookingRepo repository.BookingRepository, logger *zap.Logger) *ChargeConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargeConsumer{bookingRepo: bookingRepo, logger: logger}
}

// Start listens for charge messages and posts them onto in-house bookings.
// Cancelling ctx aborts any in-flight database work; the goroutine itself
// exits when the delivery channel closes.
func (cc *ChargeConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(ctx, msg)
		}
		cc.logger.Info("charge consumer channel closed, stopping")
	}()
}

func (cc *ChargeConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var charge ServiceCharge
	if err := json.Unmarshal(msg.Body, &charge); err != nil {
		cc.logger.Error("failed to unmarshal charge", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	if charge.Amount <= 0 {
		cc.logger.Warn("dropping non-positive charge",
			zap.Uint("booking_id", charge.BookingID),
			zap.Float64("amount", charge.Amount),
		)
		msg.Nack(false, false)
		return
	}

	rows, err := cc.bookingRepo.AddServiceCharge(ctx, charge.BookingID, charge.Amount)
	if err != nil {
		cc.logger.Error("failed to apply charge",
			zap.Uint("booking_id", charge.BookingID),
			zap.Error(err),
		)
		msg.Nack(false, true) // requeue
		return
	}
	if rows == 0 {
		// Booking unknown or no longer in-house; nothing to retry.
		cc.logger.Warn("charge targets a booking that is not checked in",
			zap.Uint("booking_id", charge.BookingID),
		)
		msg.Nack(false, false)
		return
	}

	cc.logger.Info("applied service charge",
		zap.Uint("booking_id", charge.BookingID),
		zap.Float64("amount", charge.Amount),
		zap.String("description", charge.Description),
	)
	msg.Ack(false)
}
