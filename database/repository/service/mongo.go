package serviceRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"schedly/models"
)

// ErrNotFound is returned when no service matches the key.
var ErrNotFound = errors.New("service not found")

const opTimeout = 5 * time.Second

func (r *mongoServiceRepo) Insert(ctx context.Context, svc *models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, svc); err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (r *mongoServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var svc models.Service
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&svc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	return &svc, nil
}

func (r *mongoServiceRepo) Update(ctx context.Context, svc *models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	svc.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": svc.ID}, svc)
	if err != nil {
		return fmt.Errorf("update service %s: %w", svc.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoServiceRepo) LinkSpecialist(ctx context.Context, serviceID, specialistID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": serviceID}, bson.M{
		"$addToSet": bson.M{"specialistIds": specialistID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("link specialist %s to service %s: %w", specialistID, serviceID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoServiceRepo) UnlinkSpecialist(ctx context.Context, serviceID, specialistID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": serviceID}, bson.M{
		"$pull": bson.M{"specialistIds": specialistID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("unlink specialist %s from service %s: %w", specialistID, serviceID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoServiceRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("list services for tenant %s: %w", tenantID, err)
	}
	defer cur.Close(ctx)

	var out []models.Service
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}
	return out, nil
}
