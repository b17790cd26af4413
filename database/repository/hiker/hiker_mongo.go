package hikerRepo

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

// HikerRepository is the persistence interface for hikers.
type HikerRepository interface {
	Create(ctx context.Context, hiker models.Hiker) (string, error)
	GetByID(ctx context.Context, id string) (*models.Hiker, error)
	GetByEmail(ctx context.Context, email string) (*models.Hiker, error)
}

type mongoHikerRepo struct {
	coll *mongo.Collection
}

// NewMongoHikerRepo returns a HikerRepository backed by MongoDB.
func NewMongoHikerRepo() HikerRepository {
	db := database.MongoClient.Database("trailbound")
	return &mongoHikerRepo{
		coll: db.Collection("hikers"),
	}
}

func (r *mongoHikerRepo) Create(ctx context.Context, hiker models.Hiker) (string, error) {
	if hiker.ID == "" {
		hiker.ID = uuid.New().String()
	}
	hiker.CreatedAt = time.Now()
	hiker.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, hiker)
	if err != nil {
		return "", err
	}
	return hiker.ID, nil
}

func (r *mongoHikerRepo) GetByID(ctx context.Context, id string) (*models.Hiker, error) {
	var hiker models.Hiker
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&hiker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &hiker, nil
}

func (r *mongoHikerRepo) GetByEmail(ctx context.Context, email string) (*models.Hiker, error) {
	var hiker models.Hiker
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&hiker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &hiker, nil
}
