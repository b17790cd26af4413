package models

import "time"

type WebhookProcessingStatus string

const (
	WebhookPending    WebhookProcessingStatus = "pending"
	WebhookProcessing WebhookProcessingStatus = "processing"
	WebhookCompleted  WebhookProcessingStatus = "completed"
	WebhookFailed     WebhookProcessingStatus = "failed"
)

// DefaultWebhookMaxRetries caps rescheduling; after this many failed attempts
// an event is permanently failed and needs manual intervention.
const DefaultWebhookMaxRetries = 3

// WebhookEvent stores a provider webhook payload for idempotent, retryable
// processing. ProviderEventID deduplicates redeliveries.
type WebhookEvent struct {
	ID               string                  `bson:"id" json:"id"`
	EventType        string                  `bson:"event_type" json:"event_type"`
	ProviderEventID  string                  `bson:"provider_event_id" json:"provider_event_id"`
	Payload          string                  `bson:"payload" json:"payload"`
	ProcessingStatus WebhookProcessingStatus `bson:"processing_status" json:"processing_status"`
	RetryCount       int                     `bson:"retry_count" json:"retry_count"`
	MaxRetries       int                     `bson:"max_retries" json:"max_retries"`
	NextRetryAt      time.Time               `bson:"next_retry_at" json:"next_retry_at"`
	LastError        string                  `bson:"last_error,omitempty" json:"last_error,omitempty"`
	CreatedAt        time.Time               `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time               `bson:"updated_at" json:"updated_at"`
}
