package main

import (
	"context"
	"log"

	"github.com/hotelstay/checkout-service/config"
	"github.com/hotelstay/checkout-service/internal/consumer"
	"github.com/hotelstay/checkout-service/internal/handler"
	"github.com/hotelstay/checkout-service/internal/middleware"
	"github.com/hotelstay/checkout-service/internal/repository"
	"github.com/hotelstay/checkout-service/internal/service"
	"github.com/hotelstay/checkout-service/pkg/database"
	"github.com/hotelstay/checkout-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ publisher: settlement events for downstream services
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// RabbitMQ consumer: room-service charges posted by the front desk / POS
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chargeConsumer := consumer.NewChargeConsumer(bookingRepo, logger)
	chargeConsumer.Start(ctx, msgs)

	// Service
	checkoutSvc := service.NewCheckoutService(bookingRepo, customerRepo, invoiceRepo, publisher, logger)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "checkout-service"})
	})

	handler.NewCheckoutHandler(checkoutSvc).RegisterRoutes(e)

	log.Printf("Checkout Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
