package payments

import (
	"context"
	"fmt"
	"time"

	"trailbound/models"

	"go.uber.org/zap"
)

// CollectDueFinalPayments sweeps deposit bookings whose final payment is due
// and attempts an off-session charge for each. Per-booking failures are
// isolated; the sweep never aborts early. Re-running is safe because paid
// bookings fall out of the selection filter.
//
// Fees for the final charge come from the guide's CURRENT configuration, not
// the snapshot taken at booking time.
func (s *DefaultPaymentService) CollectDueFinalPayments(ctx context.Context, today time.Time) (*models.SweepResult, error) {
	due, err := s.Bookings.DueFinalPayments(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to query due final payments: %w", err)
	}

	result := &models.SweepResult{}
	for i := range due {
		booking := due[i]
		if err := s.collectFinalPayment(ctx, &booking); err != nil {
			result.Failed++
			s.Logger.Warn("final payment not collected",
				zap.String("booking", booking.ID),
				zap.String("reference", booking.Reference),
				zap.Error(err))
			continue
		}
		result.Succeeded++
	}

	s.Logger.Info("final payment sweep finished",
		zap.Int("due", len(due)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *DefaultPaymentService) collectFinalPayment(ctx context.Context, booking *models.Booking) error {
	if booking.StripeCustomerID == "" || booking.SavedPaymentMethodID == "" {
		booking.FinalPaymentStatus = models.FinalPaymentRequiresAction
		if err := s.Bookings.Save(ctx, booking); err != nil {
			return err
		}
		s.Notifier.HikerEmail(ctx, booking.HikerID, models.TemplateFinalPaymentAction, map[string]string{
			"reference": booking.Reference,
			"amount":    formatAmount(booking.FinalPaymentCents, booking.Currency),
			"reason":    "no saved payment method",
		})
		return fmt.Errorf("no saved payment method")
	}

	guide, err := s.Guides.GetByID(ctx, booking.GuideID)
	if err != nil {
		return fmt.Errorf("failed to load guide %s: %w", booking.GuideID, err)
	}
	if guide == nil {
		return fmt.Errorf("guide %s not found", booking.GuideID)
	}
	platform, err := s.Platform.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load platform settings: %w", err)
	}

	fees := ResolveFees(guide.FeeConfig, platform)
	finalFee := PercentOf(booking.FinalPaymentCents, fees.HikerFeePct)
	chargeCents := booking.FinalPaymentCents + finalFee

	// Mark processing before the side-effecting call so a concurrent run sees
	// the booking in flight.
	booking.FinalPaymentStatus = models.FinalPaymentProcessing
	booking.FinalServiceFeeCents = finalFee
	if err := s.Bookings.Save(ctx, booking); err != nil {
		return err
	}

	outcome, chargeErr := s.Gateway.ChargeOffSession(ctx, OffSessionChargeParams{
		AmountCents:     chargeCents,
		Currency:        booking.Currency,
		CustomerID:      booking.StripeCustomerID,
		PaymentMethodID: booking.SavedPaymentMethodID,
		Metadata: map[string]string{
			"booking_id": booking.ID,
			"reference":  booking.Reference,
			"charge":     "final_payment",
		},
	})
	if chargeErr != nil {
		return s.recordFinalPaymentFailure(ctx, booking, chargeErr)
	}

	booking.FinalPaymentStatus = models.FinalPaymentPaid
	booking.FinalPaymentIntentID = outcome.PaymentIntentID
	booking.PaymentStatus = models.PaymentSucceeded
	if err := s.Bookings.Save(ctx, booking); err != nil {
		return err
	}

	s.Notifier.HikerEmail(ctx, booking.HikerID, models.TemplateFinalPaymentReceipt, map[string]string{
		"reference": booking.Reference,
		"amount":    formatAmount(chargeCents, booking.Currency),
	})
	s.Logger.Info("final payment collected",
		zap.String("booking", booking.ID),
		zap.Int64("amount_cents", chargeCents),
		zap.String("payment_intent", outcome.PaymentIntentID))
	return nil
}

func (s *DefaultPaymentService) recordFinalPaymentFailure(ctx context.Context, booking *models.Booking, chargeErr error) error {
	reason := "payment could not be processed"
	switch ClassifyChargeError(chargeErr) {
	case ChargeFailureRequiresAction:
		booking.FinalPaymentStatus = models.FinalPaymentRequiresAction
		reason = "your card was declined or needs authentication"
	default:
		booking.FinalPaymentStatus = models.FinalPaymentFailed
	}

	if err := s.Bookings.Save(ctx, booking); err != nil {
		return err
	}

	s.Notifier.HikerEmail(ctx, booking.HikerID, models.TemplateFinalPaymentAction, map[string]string{
		"reference": booking.Reference,
		"amount":    formatAmount(booking.FinalPaymentCents+booking.FinalServiceFeeCents, booking.Currency),
		"reason":    reason,
	})
	return fmt.Errorf("off-session charge failed: %w", chargeErr)
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
