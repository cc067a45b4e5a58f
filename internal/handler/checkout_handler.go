package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hotelstay/checkout-service/internal/dto"
	"github.com/hotelstay/checkout-service/internal/models"
	"github.com/hotelstay/checkout-service/internal/service"
	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	svc service.CheckoutService
}

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	bookings := e.Group("/api/v1/bookings")
	bookings.POST("/:id/checkout", h.Checkout)
	bookings.GET("/:id", h.GetBooking)
	bookings.GET("", h.ListBookings)
	bookings.GET("/:id/invoice", h.GetInvoice)

	e.GET("/api/v1/customers/:id", h.GetCustomer)
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	result, err := h.svc.Checkout(c.Request().Context(), uint(bookingID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCheckedIn):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToCheckoutResponse(result))
}

func (h *CheckoutHandler) GetBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *CheckoutHandler) ListBookings(c echo.Context) error {
	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) GetInvoice(c echo.Context) error {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	invoice, err := h.svc.GetInvoice(c.Request().Context(), uint(bookingID))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}

	return c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *CheckoutHandler) GetCustomer(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}

	customer, err := h.svc.GetCustomer(c.Request().Context(), uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "customer not found")
	}

	return c.JSON(http.StatusOK, dto.ToCustomerResponse(customer))
}
