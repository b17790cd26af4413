package bookingRepo

import (
	"context"
	"time"

	"trailbound/database"
	"trailbound/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository is the persistence interface for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking models.Booking) (string, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	Save(ctx context.Context, booking *models.Booking) error
	DueFinalPayments(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	ListByHiker(ctx context.Context, hikerID string) ([]models.Booking, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRepository backed by MongoDB.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("trailbound")
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
