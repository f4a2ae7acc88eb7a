package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"schedly/config"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
	// SweepLockClient is the dedicated client for the reminder sweep run-lock.
	SweepLockClient *redis.Client
)

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitSweepLock initializes the Redis client backing the sweep run-lock.
func InitSweepLock() {
	SweepLockClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepLockDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := SweepLockClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Sweep Lock): %v", err)
	}
}

// GetSweepLockClient returns the Redis client for the sweep run-lock.
func GetSweepLockClient() *redis.Client {
	if SweepLockClient == nil {
		InitSweepLock()
	}
	return SweepLockClient
}
