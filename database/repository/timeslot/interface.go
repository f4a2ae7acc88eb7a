package timeslotRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"schedly/database"
	"schedly/models"
	"schedly/utils"
)

// TimeSlotRepository provides keyed and range access to persisted slots plus
// the conditional occupancy primitives the booking engine relies on.
type TimeSlotRepository interface {
	GetByID(ctx context.Context, id string) (*models.TimeSlot, error)
	GetBySpecialistAndRange(ctx context.Context, specialistID string, from, to time.Time) ([]models.TimeSlot, error)

	// Materialize persists a slot keyed by (specialistId, startTime, endTime).
	// Re-materializing an identical window is idempotent and returns the
	// existing row.
	Materialize(ctx context.Context, slot *models.TimeSlot) (*models.TimeSlot, error)

	// MarkBooked flips isBooked only if the slot is currently unbooked;
	// a lost race surfaces as ErrSlotTaken.
	MarkBooked(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error

	SetAvailable(ctx context.Context, id string, available bool) error
	DeleteBySpecialist(ctx context.Context, specialistID string) (int64, error)
}

type mongoTimeSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoTimeSlotRepo constructs a new MongoDB TimeSlotRepository.
func NewMongoTimeSlotRepo() TimeSlotRepository {
	repo := &mongoTimeSlotRepo{
		coll: database.DB().Collection("timeslots"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("Failed to create timeslot indexes", zap.Error(err))
	}
	return repo
}
