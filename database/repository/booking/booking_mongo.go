package bookingRepo

import (
	"context"
	"errors"
	"time"

	"trailbound/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create inserts a new booking and returns its ID.
func (r *mongoBookingRepo) Create(ctx context.Context, booking models.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, booking)
	if err != nil {
		return "", err
	}
	return booking.ID, nil
}

// GetByID returns a booking by its ID.
func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// GetByReference returns a booking by its human-readable reference code.
func (r *mongoBookingRepo) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"reference": reference}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// Save replaces the stored document for the booking.
func (r *mongoBookingRepo) Save(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": booking.ID}, booking)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("booking not found")
	}
	return nil
}

// DueFinalPayments returns deposit bookings whose final payment is due on or
// before the cutoff and still pending or failed. Paid bookings are excluded by
// the filter, which is what makes sweep re-runs safe.
func (r *mongoBookingRepo) DueFinalPayments(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"payment_type":           models.PaymentTypeDeposit,
		"final_payment_due_date": bson.M{"$lte": cutoff},
		"final_payment_status": bson.M{
			"$in": []models.FinalPaymentStatus{models.FinalPaymentPending, models.FinalPaymentFailed},
		},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByHiker fetches all bookings made by a hiker.
func (r *mongoBookingRepo) ListByHiker(ctx context.Context, hikerID string) ([]models.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"hiker_id": hikerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
