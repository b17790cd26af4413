package notification

import (
	"context"

	"trailbound/models"
	"trailbound/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// AsynqDispatcher enqueues notification tasks onto the redis-backed queue.
// A worker delivers them; enqueue failures are logged and dropped so payment
// flows are never blocked on notification plumbing.
type AsynqDispatcher struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewAsynqDispatcher(client *asynq.Client, logger *zap.Logger) *AsynqDispatcher {
	return &AsynqDispatcher{Client: client, Logger: logger}
}

func (d *AsynqDispatcher) HikerEmail(ctx context.Context, hikerID, template string, data map[string]string) {
	d.enqueue(ctx, models.NotifyPayload{Target: "hiker", ID: hikerID, Template: template, Data: data})
}

func (d *AsynqDispatcher) GuideEmail(ctx context.Context, guideID, template string, data map[string]string) {
	d.enqueue(ctx, models.NotifyPayload{Target: "guide", ID: guideID, Template: template, Data: data})
}

func (d *AsynqDispatcher) OpsMessage(ctx context.Context, text string) {
	d.enqueue(ctx, models.NotifyPayload{Target: "ops", Text: text})
}

func (d *AsynqDispatcher) enqueue(ctx context.Context, payload models.NotifyPayload) {
	task, err := tasks.NewNotifyTask(payload)
	if err != nil {
		d.Logger.Warn("failed to build notification task", zap.Error(err))
		return
	}
	if _, err := d.Client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		d.Logger.Warn("failed to enqueue notification",
			zap.String("target", payload.Target),
			zap.String("template", payload.Template),
			zap.Error(err))
	}
}
