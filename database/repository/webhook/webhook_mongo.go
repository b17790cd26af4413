package webhookRepo

import (
	"context"
	"errors"
	"time"

	"trailbound/database"
	"trailbound/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WebhookEventRepository persists provider webhook events for retryable
// processing.
type WebhookEventRepository interface {
	Enqueue(ctx context.Context, event models.WebhookEvent) (string, error)
	GetByProviderEventID(ctx context.Context, providerEventID string) (*models.WebhookEvent, error)
	Due(ctx context.Context, now time.Time) ([]models.WebhookEvent, error)
	Save(ctx context.Context, event *models.WebhookEvent) error
}

type mongoWebhookRepo struct {
	coll *mongo.Collection
}

// NewMongoWebhookRepo returns a WebhookEventRepository backed by MongoDB.
func NewMongoWebhookRepo() WebhookEventRepository {
	db := database.MongoClient.Database("trailbound")
	return &mongoWebhookRepo{
		coll: db.Collection("webhook_events"),
	}
}

// Enqueue stores a new event in pending state. Redelivered provider events are
// deduplicated by provider event id and return the existing entry's id.
func (r *mongoWebhookRepo) Enqueue(ctx context.Context, event models.WebhookEvent) (string, error) {
	if event.ProviderEventID != "" {
		existing, err := r.GetByProviderEventID(ctx, event.ProviderEventID)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return existing.ID, nil
		}
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.ProcessingStatus = models.WebhookPending
	if event.MaxRetries == 0 {
		event.MaxRetries = models.DefaultWebhookMaxRetries
	}
	event.NextRetryAt = time.Now()
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, event)
	if err != nil {
		return "", err
	}
	return event.ID, nil
}

func (r *mongoWebhookRepo) GetByProviderEventID(ctx context.Context, providerEventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.coll.FindOne(ctx, bson.M{"provider_event_id": providerEventID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// Due returns pending events whose next retry time has passed.
func (r *mongoWebhookRepo) Due(ctx context.Context, now time.Time) ([]models.WebhookEvent, error) {
	filter := bson.M{
		"processing_status": models.WebhookPending,
		"next_retry_at":     bson.M{"$lte": now},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.WebhookEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *mongoWebhookRepo) Save(ctx context.Context, event *models.WebhookEvent) error {
	event.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": event.ID}, event)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("webhook event not found")
	}
	return nil
}
