package webhookqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"trailbound/models"

	"go.uber.org/zap"
)

// Provider event types the queue reconciles. Unknown types complete as no-ops
// so the provider can be subscribed broadly without poisoning the queue.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventPaymentIntentFailed = "payment_intent.payment_failed"
	EventAccountUpdated      = "account.updated"
)

type checkoutSessionPayload struct {
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id"`
			PaymentIntent     string            `json:"payment_intent"`
			Customer          string            `json:"customer"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type paymentIntentPayload struct {
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type accountPayload struct {
	Data struct {
		Object struct {
			ID             string `json:"id"`
			ChargesEnabled bool   `json:"charges_enabled"`
			PayoutsEnabled bool   `json:"payouts_enabled"`
		} `json:"object"`
	} `json:"data"`
}

func (s *QueueService) handle(ctx context.Context, event *models.WebhookEvent) error {
	switch event.EventType {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case EventPaymentIntentFailed:
		return s.handlePaymentIntentFailed(ctx, event)
	case EventAccountUpdated:
		return s.handleAccountUpdated(ctx, event)
	default:
		s.Logger.Debug("ignoring webhook event type", zap.String("type", event.EventType))
		return nil
	}
}

// handleCheckoutCompleted advances the booking after the hiker paid the hosted
// checkout. For deposit bookings the saved payment method is captured here so
// the final-payment sweep can charge off-session later.
func (s *QueueService) handleCheckoutCompleted(ctx context.Context, event *models.WebhookEvent) error {
	var p checkoutSessionPayload
	if err := json.Unmarshal([]byte(event.Payload), &p); err != nil {
		return fmt.Errorf("invalid checkout payload: %w", err)
	}
	obj := p.Data.Object

	bookingID := obj.ClientReferenceID
	if bookingID == "" {
		bookingID = obj.Metadata["booking_id"]
	}
	if bookingID == "" {
		return fmt.Errorf("checkout event %s carries no booking reference", obj.ID)
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", bookingID)
	}

	booking.PaymentStatus = models.PaymentSucceeded
	booking.Status = models.BookingConfirmed
	booking.UpfrontPaymentIntentID = obj.PaymentIntent
	booking.StripeCustomerID = obj.Customer

	if booking.PaymentType == models.PaymentTypeDeposit && obj.PaymentIntent != "" {
		saved, err := s.Gateway.SavedPaymentMethod(ctx, obj.PaymentIntent)
		if err != nil {
			return fmt.Errorf("failed to retrieve saved payment method: %w", err)
		}
		if saved.CustomerID != "" {
			booking.StripeCustomerID = saved.CustomerID
		}
		booking.SavedPaymentMethodID = saved.PaymentMethodID
	}

	if err := s.Bookings.Save(ctx, booking); err != nil {
		return fmt.Errorf("failed to update booking %s: %w", bookingID, err)
	}

	s.Notifier.HikerEmail(ctx, booking.HikerID, models.TemplateBookingConfirmed, map[string]string{
		"reference": booking.Reference,
		"tour_name": booking.TourName,
		"amount":    fmt.Sprintf("%.2f %s", float64(booking.TotalPriceCents)/100, booking.Currency),
	})
	return nil
}

// handlePaymentIntentFailed records an asynchronous decline of the final
// charge. Only bookings mid final payment are touched.
func (s *QueueService) handlePaymentIntentFailed(ctx context.Context, event *models.WebhookEvent) error {
	var p paymentIntentPayload
	if err := json.Unmarshal([]byte(event.Payload), &p); err != nil {
		return fmt.Errorf("invalid payment intent payload: %w", err)
	}
	bookingID := p.Data.Object.Metadata["booking_id"]
	if bookingID == "" {
		return nil
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if booking == nil || booking.FinalPaymentStatus != models.FinalPaymentProcessing {
		return nil
	}

	booking.FinalPaymentStatus = models.FinalPaymentFailed
	return s.Bookings.Save(ctx, booking)
}

// handleAccountUpdated syncs connected-account capability flags to the guide.
func (s *QueueService) handleAccountUpdated(ctx context.Context, event *models.WebhookEvent) error {
	var p accountPayload
	if err := json.Unmarshal([]byte(event.Payload), &p); err != nil {
		return fmt.Errorf("invalid account payload: %w", err)
	}
	obj := p.Data.Object
	if obj.ID == "" {
		return fmt.Errorf("account event carries no account id")
	}
	return s.Guides.SetAccountCapabilities(ctx, obj.ID, obj.ChargesEnabled, obj.PayoutsEnabled)
}
