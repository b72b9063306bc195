package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gymstack-backend/sections/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = redis.Nil

// RedisClient wraps the Redis client with gym cache operations
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password, prefix string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Redis client initialized successfully", "addr", addr)
	return &RedisClient{client: client, prefix: prefix}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) gymKey(kind, value string) string {
	return fmt.Sprintf("%sgym:%s:%s", r.prefix, kind, value)
}

// CacheGym caches a gym under its slug and, when present, its custom domain.
func (r *RedisClient) CacheGym(ctx context.Context, gym *models.Gym, ttl time.Duration) error {
	data, err := json.Marshal(gym)
	if err != nil {
		return fmt.Errorf("failed to serialize gym: %w", err)
	}

	if err := r.client.Set(ctx, r.gymKey("slug", gym.Slug), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache gym: %w", err)
	}
	if gym.CustomDomain != nil && *gym.CustomDomain != "" {
		if err := r.client.Set(ctx, r.gymKey("domain", *gym.CustomDomain), data, ttl).Err(); err != nil {
			return fmt.Errorf("failed to cache gym by domain: %w", err)
		}
	}

	slog.Debug("Gym cached", "gym_id", gym.ID, "slug", gym.Slug)
	return nil
}

// GetGymBySlug retrieves a cached gym by slug. Returns ErrCacheMiss when absent.
func (r *RedisClient) GetGymBySlug(ctx context.Context, slug string) (*models.Gym, error) {
	return r.getGym(ctx, r.gymKey("slug", slug))
}

// GetGymByDomain retrieves a cached gym by custom domain. Returns ErrCacheMiss when absent.
func (r *RedisClient) GetGymByDomain(ctx context.Context, domain string) (*models.Gym, error) {
	return r.getGym(ctx, r.gymKey("domain", domain))
}

func (r *RedisClient) getGym(ctx context.Context, key string) (*models.Gym, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gym from Redis: %w", err)
	}

	var gym models.Gym
	if err := json.Unmarshal(data, &gym); err != nil {
		return nil, fmt.Errorf("failed to deserialize gym: %w", err)
	}
	return &gym, nil
}

// InvalidateGym drops the cached entries for a gym.
func (r *RedisClient) InvalidateGym(ctx context.Context, gym *models.Gym) error {
	keys := []string{r.gymKey("slug", gym.Slug)}
	if gym.CustomDomain != nil && *gym.CustomDomain != "" {
		keys = append(keys, r.gymKey("domain", *gym.CustomDomain))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate gym cache: %w", err)
	}
	return nil
}

// StashOrder records gateway order metadata for the lifetime of one
// registration attempt so the status endpoint can correlate it.
func (r *RedisClient) StashOrder(ctx context.Context, orderID string, payload []byte, ttl time.Duration) error {
	key := fmt.Sprintf("%sorder:%s", r.prefix, orderID)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to stash order: %w", err)
	}
	return nil
}

// GetStashedOrder retrieves stashed order metadata. Returns ErrCacheMiss when absent.
func (r *RedisClient) GetStashedOrder(ctx context.Context, orderID string) ([]byte, error) {
	key := fmt.Sprintf("%sorder:%s", r.prefix, orderID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stashed order: %w", err)
	}
	return data, nil
}
