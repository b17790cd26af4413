package cron

import (
	"context"
	"log"
	"time"

	"trailbound/config"
	"trailbound/services/payments"
	"trailbound/services/webhookqueue"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartScheduler registers the recurring sweeps: the daily final-payment
// collection and the per-minute webhook queue drain. Both are idempotent and
// also invocable on demand via the admin endpoints.
func StartScheduler(paySvc payments.PaymentService, queueSvc *webhookqueue.QueueService, logger *zap.Logger) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc(config.AppConfig.FinalSweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := paySvc.CollectDueFinalPayments(ctx, time.Now()); err != nil {
			logger.Error("scheduled final payment sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatalf("failed to schedule final payment sweep: %v", err)
	}

	_, err = c.AddFunc(config.AppConfig.WebhookSweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := queueSvc.ProcessDue(ctx, time.Now()); err != nil {
			logger.Error("scheduled webhook sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatalf("failed to schedule webhook sweep: %v", err)
	}

	c.Start()
	return c
}
