package specialistRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"schedly/models"
)

// ErrNotFound is returned when no specialist matches the key.
var ErrNotFound = errors.New("specialist not found")

const opTimeout = 5 * time.Second

func (r *mongoSpecialistRepo) Insert(ctx context.Context, sp *models.Specialist) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, sp); err != nil {
		return fmt.Errorf("insert specialist: %w", err)
	}
	return nil
}

func (r *mongoSpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var sp models.Specialist
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get specialist %s: %w", id, err)
	}
	return &sp, nil
}

func (r *mongoSpecialistRepo) Update(ctx context.Context, sp *models.Specialist) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	sp.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": sp.ID}, sp)
	if err != nil {
		return fmt.Errorf("update specialist %s: %w", sp.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSpecialistRepo) UpdateTemplate(ctx context.Context, id string, tpl models.WorkingHoursTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"template": tpl, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("update template for specialist %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSpecialistRepo) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("set active for specialist %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSpecialistRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.Specialist, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("list specialists for tenant %s: %w", tenantID, err)
	}
	defer cur.Close(ctx)

	var out []models.Specialist
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode specialists: %w", err)
	}
	return out, nil
}
