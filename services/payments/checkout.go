package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trailbound/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBooking resolves fees, computes the split and persists the booking in
// processing state. The stored amounts are authoritative: the checkout step
// charges exactly what was computed here, never a recomputation.
func (s *DefaultPaymentService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	guide, err := s.Guides.GetByID(ctx, req.GuideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guide %s: %w", req.GuideID, err)
	}
	if guide == nil {
		return nil, NewPaymentError(CodeNotFound, "guide not found")
	}

	platform, err := s.Platform.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform settings: %w", err)
	}

	fees := ResolveFees(guide.FeeConfig, platform)
	split, err := ComputeSplit(req.SubtotalCents, req.DiscountCents, fees)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{
		ID:           uuid.New().String(),
		Reference:    newBookingReference(),
		TourID:       req.TourID,
		TourName:     req.TourName,
		GuideID:      req.GuideID,
		HikerID:      req.HikerID,
		SlotDate:     req.SlotDate,
		Participants: req.Participants,
		Currency:     strings.ToLower(req.Currency),

		SubtotalCents:   split.SubtotalCents,
		DiscountCents:   split.DiscountCents,
		ServiceFeeCents: split.HikerServiceFeeCents,
		TotalPriceCents: split.TotalChargedCents,

		PaymentType:   models.PaymentTypeFull,
		PaymentStatus: models.PaymentProcessing,
		Status:        models.BookingPending,

		GuideFeePctSnapshot: fees.GuideFeePct,
		HikerFeePctSnapshot: fees.HikerFeePct,

		// Full payments are destination charges: the guide is paid at charge
		// time and the settler has nothing left to transfer.
		EscrowEnabled:  false,
		TransferStatus: models.TransferNotStarted,
	}

	if req.PayDeposit {
		deposit := DepositAmount(guide.FeeConfig, split.PostDiscountCents)
		booking.PaymentType = models.PaymentTypeDeposit
		// The deposit charge stays on the platform, so the guide is paid by
		// settlement once the tour completes.
		booking.EscrowEnabled = true
		booking.DepositCents = deposit
		booking.FinalPaymentCents = split.PostDiscountCents - deposit
		booking.FinalPaymentDueDate = req.SlotDate.AddDate(0, 0, -guide.FeeConfig.FinalPaymentDays)
		booking.FinalPaymentStatus = models.FinalPaymentPending
		// Deposit charge covers the deposit plus the full service fee.
		booking.TotalPriceCents = deposit + split.HikerServiceFeeCents
	}

	if _, err := s.Bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	s.Logger.Info("booking created",
		zap.String("booking", booking.ID),
		zap.String("reference", booking.Reference),
		zap.String("payment_type", string(booking.PaymentType)),
		zap.Int64("subtotal_cents", booking.SubtotalCents),
		zap.Int64("total_cents", booking.TotalPriceCents))

	return &booking, nil
}

// CreateUpfrontCharge validates guide payability and the deposit window, then
// opens a hosted-checkout session for the amounts stored on the booking.
func (s *DefaultPaymentService) CreateUpfrontCharge(ctx context.Context, bookingID string) (*models.CheckoutInfo, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, NewPaymentError(CodeNotFound, "booking not found")
	}

	guide, err := s.Guides.GetByID(ctx, booking.GuideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guide %s: %w", booking.GuideID, err)
	}
	if guide == nil || guide.StripeAccountID == "" {
		return nil, NewPaymentError(CodeGuideNotPayable, "guide has no connected payment account")
	}

	// Capability check goes to the provider, not the synced flags: payability
	// must be current at charge time.
	status, err := s.Gateway.AccountStatus(ctx, guide.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify guide account: %w", err)
	}
	if !status.ChargesEnabled {
		return nil, NewPaymentError(CodeGuideAccountNotReady, "guide account cannot accept charges yet")
	}

	isDeposit := booking.PaymentType == models.PaymentTypeDeposit
	if isDeposit {
		window := time.Now().AddDate(0, 0, guide.FeeConfig.FinalPaymentDays)
		if !booking.SlotDate.After(window) {
			return nil, NewPaymentError(CodeDepositWindowClosed,
				fmt.Sprintf("tour is within %d days; full payment required", guide.FeeConfig.FinalPaymentDays))
		}
	}

	guideFee := PercentOf(booking.SubtotalCents-booking.DiscountCents, booking.GuideFeePctSnapshot)
	metadata := map[string]string{
		"booking_id":          booking.ID,
		"reference":           booking.Reference,
		"deposit":             strconv.FormatBool(isDeposit),
		"guide_fee_cents":     strconv.FormatInt(guideFee, 10),
		"hiker_fee_cents":     strconv.FormatInt(booking.ServiceFeeCents, 10),
		"final_payment_cents": strconv.FormatInt(booking.FinalPaymentCents, 10),
	}

	params := CheckoutParams{
		AmountCents:     booking.TotalPriceCents,
		Currency:        booking.Currency,
		ProductName:     booking.TourName,
		ClientReference: booking.ID,
		SuccessURL:      s.SuccessURL,
		CancelURL:       s.CancelURL,
		Metadata:        metadata,
	}
	if isDeposit {
		// The deposit charge stays on the platform; the guide is paid at
		// settlement. Request a reusable payment method for the final charge.
		params.SavePaymentMethod = true
	} else {
		// Full payments are destination charges with the platform cut taken
		// as an application fee; no separate transfer happens later for the
		// fee portion.
		params.Destination = guide.StripeAccountID
		params.ApplicationFeeCents = guideFee + booking.ServiceFeeCents
	}

	sess, err := s.Gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	booking.CheckoutSessionID = sess.ID
	if err := s.Bookings.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}

	s.Logger.Info("checkout session created",
		zap.String("booking", booking.ID),
		zap.String("session", sess.ID),
		zap.Bool("deposit", isDeposit),
		zap.Int64("amount_cents", booking.TotalPriceCents))

	return &models.CheckoutInfo{
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		SessionID:   sess.ID,
		RedirectURL: sess.URL,
	}, nil
}

func newBookingReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "TB-" + id[:6]
}
