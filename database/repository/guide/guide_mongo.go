package guideRepo

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

// GuideRepository is the persistence interface for guides.
type GuideRepository interface {
	Create(ctx context.Context, guide models.Guide) (string, error)
	GetByID(ctx context.Context, id string) (*models.Guide, error)
	GetByEmail(ctx context.Context, email string) (*models.Guide, error)
	Save(ctx context.Context, guide *models.Guide) error
	SetAccountCapabilities(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error
}

type mongoGuideRepo struct {
	coll *mongo.Collection
}

// NewMongoGuideRepo returns a GuideRepository backed by MongoDB.
func NewMongoGuideRepo() GuideRepository {
	db := database.MongoClient.Database("trailbound")
	return &mongoGuideRepo{
		coll: db.Collection("guides"),
	}
}

func (r *mongoGuideRepo) Create(ctx context.Context, guide models.Guide) (string, error) {
	if guide.ID == "" {
		guide.ID = uuid.New().String()
	}
	guide.CreatedAt = time.Now()
	guide.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, guide)
	if err != nil {
		return "", err
	}
	return guide.ID, nil
}

func (r *mongoGuideRepo) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	var guide models.Guide
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&guide)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &guide, nil
}

func (r *mongoGuideRepo) GetByEmail(ctx context.Context, email string) (*models.Guide, error) {
	var guide models.Guide
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&guide)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &guide, nil
}

func (r *mongoGuideRepo) Save(ctx context.Context, guide *models.Guide) error {
	guide.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": guide.ID}, guide)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("guide not found")
	}
	return nil
}

// SetAccountCapabilities syncs the charges/payouts flags reported by an
// account.updated webhook onto the owning guide.
func (r *mongoGuideRepo) SetAccountCapabilities(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error {
	update := bson.M{"$set": bson.M{
		"charges_enabled": chargesEnabled,
		"payouts_enabled": payoutsEnabled,
		"updated_at":      time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"stripe_account_id": stripeAccountID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("no guide with that connected account")
	}
	return nil
}
