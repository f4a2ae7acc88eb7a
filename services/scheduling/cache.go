package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"schedly/models"
)

// SlotCache caches computed day-slot sequences. Implementations must treat
// every failure as a miss; the generator can always rebuild the day.
type SlotCache interface {
	GetDay(ctx context.Context, specialistID string, day time.Time) ([]models.TimeSlot, bool)
	SetDay(ctx context.Context, specialistID string, day time.Time, slots []models.TimeSlot)
	// InvalidateDay drops one cached day after its occupancy changed.
	InvalidateDay(ctx context.Context, specialistID string, day time.Time)
	// InvalidateSpecialist drops every cached day for the specialist after a
	// template or profile change.
	InvalidateSpecialist(ctx context.Context, specialistID string)
}

const daySlotCachePrefix = "daySlots:"

// RedisSlotCache stores day sequences as JSON in Redis. Per-specialist
// invalidation bumps a generation counter instead of scanning keys; entries
// written under an older generation become unreachable and age out via TTL.
type RedisSlotCache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func (c *RedisSlotCache) genKey(specialistID string) string {
	return daySlotCachePrefix + "gen:" + specialistID
}

func (c *RedisSlotCache) dayKey(ctx context.Context, specialistID string, day time.Time) (string, error) {
	gen, err := c.Client.Get(ctx, c.genKey(specialistID)).Result()
	if err == redis.Nil {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:%s:%s",
		daySlotCachePrefix, specialistID, gen, day.UTC().Format("2006-01-02")), nil
}

func (c *RedisSlotCache) GetDay(ctx context.Context, specialistID string, day time.Time) ([]models.TimeSlot, bool) {
	key, err := c.dayKey(ctx, specialistID, day)
	if err != nil {
		c.Logger.Warn("slot cache unavailable, falling back to generator", zap.Error(err))
		return nil, false
	}

	raw, err := c.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.Logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var slots []models.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.Logger.Warn("slot cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		c.Client.Del(ctx, key)
		return nil, false
	}
	return slots, true
}

func (c *RedisSlotCache) SetDay(ctx context.Context, specialistID string, day time.Time, slots []models.TimeSlot) {
	key, err := c.dayKey(ctx, specialistID, day)
	if err != nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		c.Logger.Warn("slot cache marshal failed", zap.Error(err))
		return
	}
	if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
		c.Logger.Warn("slot cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisSlotCache) InvalidateDay(ctx context.Context, specialistID string, day time.Time) {
	key, err := c.dayKey(ctx, specialistID, day)
	if err != nil {
		return
	}
	if err := c.Client.Del(ctx, key).Err(); err != nil {
		c.Logger.Warn("slot cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisSlotCache) InvalidateSpecialist(ctx context.Context, specialistID string) {
	if err := c.Client.Incr(ctx, c.genKey(specialistID)).Err(); err != nil {
		c.Logger.Warn("slot cache generation bump failed",
			zap.String("specialistId", specialistID), zap.Error(err))
	}
}
