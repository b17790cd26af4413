package webhookqueue

import (
	"context"
	"fmt"
	"math"
	"time"

	bookingRepo "trailbound/database/repository/booking"
	guideRepo "trailbound/database/repository/guide"
	webhookRepo "trailbound/database/repository/webhook"
	"trailbound/models"
	"trailbound/services/notification"
	"trailbound/services/payments"

	"go.uber.org/zap"
)

// QueueService reconciles persisted provider webhook events against booking
// and guide state. Events that fail are rescheduled with exponential backoff
// (2, 4, 8 minutes) and permanently failed after max retries.
type QueueService struct {
	Events   webhookRepo.WebhookEventRepository
	Bookings bookingRepo.BookingRepository
	Guides   guideRepo.GuideRepository
	Gateway  payments.PaymentGateway
	Notifier notification.Dispatcher
	Logger   *zap.Logger
}

// Enqueue stores a received provider event for asynchronous processing.
func (s *QueueService) Enqueue(ctx context.Context, eventType, providerEventID, payload string) (string, error) {
	return s.Events.Enqueue(ctx, models.WebhookEvent{
		EventType:       eventType,
		ProviderEventID: providerEventID,
		Payload:         payload,
	})
}

// SweepResult summarizes one queue sweep.
type SweepResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ProcessDue handles all events whose retry time has passed. Per-event
// failures are isolated from the rest of the batch.
func (s *QueueService) ProcessDue(ctx context.Context, now time.Time) (*SweepResult, error) {
	due, err := s.Events.Due(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due webhook events: %w", err)
	}

	result := &SweepResult{}
	for i := range due {
		event := due[i]
		event.ProcessingStatus = models.WebhookProcessing
		if err := s.Events.Save(ctx, &event); err != nil {
			s.Logger.Warn("failed to claim webhook event", zap.String("event", event.ID), zap.Error(err))
			result.Failed++
			continue
		}

		if err := s.handle(ctx, &event); err != nil {
			s.reschedule(ctx, &event, now, err)
			result.Failed++
			continue
		}

		event.ProcessingStatus = models.WebhookCompleted
		event.LastError = ""
		if err := s.Events.Save(ctx, &event); err != nil {
			s.Logger.Warn("failed to mark webhook event completed", zap.String("event", event.ID), zap.Error(err))
		}
		result.Processed++
	}

	if len(due) > 0 {
		s.Logger.Info("webhook queue sweep finished",
			zap.Int("due", len(due)),
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

// reschedule bumps the retry counter and either re-queues the event with
// exponential backoff or marks it permanently failed.
func (s *QueueService) reschedule(ctx context.Context, event *models.WebhookEvent, now time.Time, cause error) {
	event.RetryCount++
	event.LastError = cause.Error()

	if event.RetryCount >= event.MaxRetries {
		event.ProcessingStatus = models.WebhookFailed
		s.Logger.Error("webhook event permanently failed",
			zap.String("event", event.ID),
			zap.String("type", event.EventType),
			zap.Int("retries", event.RetryCount),
			zap.Error(cause))
		s.Notifier.OpsMessage(ctx, fmt.Sprintf(
			"Webhook event %s (%s) permanently failed after %d attempts: %v",
			event.ProviderEventID, event.EventType, event.RetryCount, cause))
	} else {
		backoff := time.Duration(math.Pow(2, float64(event.RetryCount))) * time.Minute
		event.ProcessingStatus = models.WebhookPending
		event.NextRetryAt = now.Add(backoff)
		s.Logger.Warn("webhook event rescheduled",
			zap.String("event", event.ID),
			zap.String("type", event.EventType),
			zap.Int("retry", event.RetryCount),
			zap.Duration("backoff", backoff),
			zap.Error(cause))
	}

	if err := s.Events.Save(ctx, event); err != nil {
		s.Logger.Error("failed to persist webhook retry state", zap.String("event", event.ID), zap.Error(err))
	}
}
