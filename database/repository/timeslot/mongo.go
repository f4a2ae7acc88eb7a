package timeslotRepo

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

var (
	// ErrNotFound is returned when no slot matches the key.
	ErrNotFound = errors.New("time slot not found")
	// ErrSlotTaken is returned when the conditional occupancy update matched
	// no unbooked row, i.e. another booking won the slot.
	ErrSlotTaken = errors.New("time slot already booked")
)

const opTimeout = 5 * time.Second

func (r *mongoTimeSlotRepo) GetByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var ts models.TimeSlot
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&ts)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get time slot %s: %w", id, err)
	}
	return &ts, nil
}

func (r *mongoTimeSlotRepo) GetBySpecialistAndRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"specialistId": specialistID,
		"startTime":    bson.M{"$lt": to},
		"endTime":      bson.M{"$gt": from},
	}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("range query slots for specialist %s: %w", specialistID, err)
	}
	defer cur.Close(ctx)

	var out []models.TimeSlot
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}
	return out, nil
}

// Materialize upserts on the (specialistId, startTime, endTime) key. The
// $setOnInsert keeps an existing row's occupancy intact, so a virtual slot
// that already materialized never resets to free.
func (r *mongoTimeSlotRepo) Materialize(ctx context.Context, slot *models.TimeSlot) (*models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"specialistId": slot.SpecialistID,
		"startTime":    slot.StartTime,
		"endTime":      slot.EndTime,
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"id":           slot.ID,
			"specialistId": slot.SpecialistID,
			"startTime":    slot.StartTime,
			"endTime":      slot.EndTime,
			"isAvailable":  slot.IsAvailable,
			"isBooked":     false,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var persisted models.TimeSlot
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&persisted)
	if mongo.IsDuplicateKeyError(err) {
		// Another request upserted the same window concurrently and the
		// unique window index rejected this insert. Read the winning row.
		err = r.coll.FindOne(ctx, filter).Decode(&persisted)
	}
	if err != nil {
		return nil, fmt.Errorf("materialize slot for specialist %s: %w", slot.SpecialistID, err)
	}
	return &persisted, nil
}

func (r *mongoTimeSlotRepo) MarkBooked(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "isBooked": false, "isAvailable": true},
		bson.M{"$set": bson.M{"isBooked": true}},
	)
	if err != nil {
		return fmt.Errorf("mark slot %s booked: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotTaken
	}
	return nil
}

func (r *mongoTimeSlotRepo) Release(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"isBooked": false}},
	)
	if err != nil {
		return fmt.Errorf("release slot %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTimeSlotRepo) SetAvailable(ctx context.Context, id string, available bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"isAvailable": available}},
	)
	if err != nil {
		return fmt.Errorf("set availability on slot %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTimeSlotRepo) DeleteBySpecialist(ctx context.Context, specialistID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{
		"specialistId": specialistID,
		"isBooked":     false,
	})
	if err != nil {
		return 0, fmt.Errorf("delete free slots for specialist %s: %w", specialistID, err)
	}
	return res.DeletedCount, nil
}
