package payments

import (
	"context"
	"time"

	bookingRepo "trailbound/database/repository/booking"
	guideRepo "trailbound/database/repository/guide"
	platformRepo "trailbound/database/repository/platform"
	"trailbound/models"
	"trailbound/services/notification"

	"go.uber.org/zap"
)

// PaymentService is the pricing and escrow core: upfront charges, the final
// payment sweep and settlement of completed bookings.
type PaymentService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	CreateUpfrontCharge(ctx context.Context, bookingID string) (*models.CheckoutInfo, error)
	CollectDueFinalPayments(ctx context.Context, today time.Time) (*models.SweepResult, error)
	SettleCompletedBooking(ctx context.Context, bookingID string) (*models.SettlementResult, error)
}

// CreateBookingRequest carries the hiker's reservation input. Amounts are
// minor units; the split is computed here, once, and persisted so every later
// charge path reuses the same figures.
type CreateBookingRequest struct {
	TourID        string    `json:"tour_id" binding:"required"`
	TourName      string    `json:"tour_name" binding:"required"`
	GuideID       string    `json:"guide_id" binding:"required"`
	HikerID       string    `json:"hiker_id" binding:"required"`
	SlotDate      time.Time `json:"slot_date" binding:"required"`
	Participants  int       `json:"participants" binding:"required,min=1"`
	Currency      string    `json:"currency" binding:"required"`
	SubtotalCents int64     `json:"subtotal_cents" binding:"required,min=1"`
	DiscountCents int64     `json:"discount_cents"`
	PayDeposit    bool      `json:"pay_deposit"`
}

// DefaultPaymentService implements PaymentService.
type DefaultPaymentService struct {
	Bookings bookingRepo.BookingRepository
	Guides   guideRepo.GuideRepository
	Platform platformRepo.PlatformSettingsRepository
	Gateway  PaymentGateway
	Notifier notification.Dispatcher
	Logger   *zap.Logger

	// SuccessURL and CancelURL are the hosted-checkout redirect targets.
	SuccessURL string
	CancelURL  string
}
