package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schedly/models"
)

// ErrNotFound is returned when no booking matches the key.
var ErrNotFound = errors.New("booking not found")

const opTimeout = 5 * time.Second

func (r *mongoBookingRepo) Insert(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *mongoBookingRepo) GetByConfirmationCode(ctx context.Context, code string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"confirmationCode": code}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by confirmation code: %w", err)
	}
	return &b, nil
}

func (r *mongoBookingRepo) Update(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": b.ID}, b)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepo) ListBySpecialistAndRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"specialistId": specialistID,
		"slotStart":    bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "slotStart", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("range query bookings for specialist %s: %w", specialistID, err)
	}
	defer cur.Close(ctx)

	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return out, nil
}

func (r *mongoBookingRepo) SetReminderScheduledFor(ctx context.Context, bookingID string, idx int, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	field := fmt.Sprintf("reminders.%d.scheduledFor", idx)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": bookingID},
		bson.M{"$set": bson.M{field: at, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set scheduledFor on booking %s reminder %d: %w", bookingID, idx, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepo) MarkReminderSent(ctx context.Context, bookingID string, idx int, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	sentField := fmt.Sprintf("reminders.%d.sent", idx)
	sentAtField := fmt.Sprintf("reminders.%d.sentAt", idx)

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": bookingID, sentField: false},
		bson.M{"$set": bson.M{sentField: true, sentAtField: at, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder %d sent on booking %s: %w", idx, bookingID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoBookingRepo) MarkAllUnsentRemindersSent(ctx context.Context, bookingID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": bookingID},
		bson.M{
			"$set": bson.M{
				"reminders.$[r].sent":   true,
				"reminders.$[r].sentAt": at,
				"updatedAt":             time.Now().UTC(),
			},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"r.sent": false}},
		}),
	)
	if err != nil {
		return fmt.Errorf("mark unsent reminders sent on booking %s: %w", bookingID, err)
	}
	return nil
}

func (r *mongoBookingRepo) ListWithUnsentReminders(ctx context.Context, statuses []models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"status":    bson.M{"$in": statuses},
		"slotStart": bson.M{"$gte": from, "$lt": to},
		"reminders": bson.M{"$elemMatch": bson.M{"sent": false}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "slotStart", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query bookings with unsent reminders: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return out, nil
}
