package tasks

import (
	"encoding/json"

	"trailbound/models"

	"github.com/hibiken/asynq"
)

const TypeNotifySend = "notify:send"

// NewNotifyTask wraps a notification payload into an asynq task.
func NewNotifyTask(payload models.NotifyPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotifySend, b), nil
}
