package handlers

import (
	"errors"
	"net/http"

	bookingRepo "trailbound/database/repository/booking"
	"trailbound/services/payments"
	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking + checkout endpoints.
type BookingHandler struct {
	PaymentSvc payments.PaymentService
	Bookings   bookingRepo.BookingRepository
	Logger     *zap.Logger
}

func NewBookingHandler(paymentSvc payments.PaymentService, bookings bookingRepo.BookingRepository, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{PaymentSvc: paymentSvc, Bookings: bookings, Logger: logger}
}

// CreateBooking creates a booking and opens the hosted checkout for it in one
// step, returning the redirect URL for the hiker.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req payments.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	booking, err := h.PaymentSvc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	checkout, err := h.PaymentSvc.CreateUpfrontCharge(c.Request.Context(), booking.ID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":  booking,
		"checkout": checkout,
	})
}

// GetBooking returns one booking by id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load booking", err.Error())
		return
	}
	if booking == nil {
		utils.JSONError(c, http.StatusNotFound, "Booking not found", "")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// respondPaymentError maps precondition errors to user-facing statuses.
func respondPaymentError(c *gin.Context, err error) {
	var pe *payments.PaymentError
	if !errors.As(err, &pe) {
		utils.JSONError(c, http.StatusInternalServerError, "Payment operation failed", err.Error())
		return
	}

	status := http.StatusConflict
	switch pe.Code {
	case payments.CodeNotFound:
		status = http.StatusNotFound
	case payments.CodeInvalidAmounts:
		status = http.StatusBadRequest
	case payments.CodeLegacyBooking:
		// Not an error for the system; the booking simply needs no action.
		c.JSON(http.StatusOK, gin.H{"code": pe.Code, "message": pe.Message})
		return
	}
	c.JSON(status, gin.H{"code": pe.Code, "message": pe.Message})
}
