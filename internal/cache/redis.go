package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 10 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, url string) (*domain.PriceRecord, error) {
	key := cacheKey(url)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var record domain.PriceRecord
	if e2 := json.Unmarshal(data, &record); e2 != nil {
		return nil, fmt.Errorf("unmarshal record failed: %w", e2)
	}

	return &record, nil
}

func (r RedisCache) Set(ctx context.Context, url string, record *domain.PriceRecord) error {
	key := cacheKey(url)
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record failed: %w", err)
	}

	// Jitter spreads expirations so a cycle's worth of keys does not lapse at once.
	jitter := time.Duration(rand.Intn(120)) * time.Second
	ttl := r.baseTTL + jitter
	if e2 := r.client.Set(ctx, key, data, ttl).Err(); e2 != nil {
		return fmt.Errorf("redis set failed: %w", e2)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, url string) error {
	if err := r.client.Del(ctx, cacheKey(url)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(url string) string {
	return fmt.Sprintf("latest:%s", url)
}
