package serviceRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"schedly/database"
	"schedly/models"
)

// ServiceRepository provides keyed access to service rows.
type ServiceRepository interface {
	Insert(ctx context.Context, svc *models.Service) error
	GetByID(ctx context.Context, id string) (*models.Service, error)
	Update(ctx context.Context, svc *models.Service) error
	LinkSpecialist(ctx context.Context, serviceID, specialistID string) error
	UnlinkSpecialist(ctx context.Context, serviceID, specialistID string) error
	ListByTenant(ctx context.Context, tenantID string) ([]models.Service, error)
}

type mongoServiceRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceRepo constructs a new MongoDB ServiceRepository.
func NewMongoServiceRepo() ServiceRepository {
	return &mongoServiceRepo{
		coll: database.DB().Collection("services"),
	}
}
