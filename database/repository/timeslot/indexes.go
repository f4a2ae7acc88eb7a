package timeslotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes the occupancy primitives depend on. The
// unique window index is load-bearing: concurrent Materialize upserts of the
// same window are only safe because one of the two inserts gets rejected.
func (r *mongoTimeSlotRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on TimeSlot ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One persisted row per (specialist, window)
		{
			Keys: bson.D{
				{Key: "specialistId", Value: 1},
				{Key: "startTime", Value: 1},
				{Key: "endTime", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_specialist_window"),
		},
		// Compound index for the day-range query pattern
		{
			Keys:    bson.D{{Key: "specialistId", Value: 1}, {Key: "startTime", Value: 1}},
			Options: options.Index().SetName("specialist_start_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create timeslot indexes: %w", err)
	}
	return nil
}
