package specialistRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"schedly/database"
	"schedly/models"
)

// SpecialistRepository provides keyed access to specialist rows.
type SpecialistRepository interface {
	Insert(ctx context.Context, sp *models.Specialist) error
	GetByID(ctx context.Context, id string) (*models.Specialist, error)
	Update(ctx context.Context, sp *models.Specialist) error
	UpdateTemplate(ctx context.Context, id string, tpl models.WorkingHoursTemplate) error
	SetActive(ctx context.Context, id string, active bool) error
	ListByTenant(ctx context.Context, tenantID string) ([]models.Specialist, error)
}

type mongoSpecialistRepo struct {
	coll *mongo.Collection
}

// NewMongoSpecialistRepo constructs a new MongoDB SpecialistRepository.
func NewMongoSpecialistRepo() SpecialistRepository {
	return &mongoSpecialistRepo{
		coll: database.DB().Collection("specialists"),
	}
}
