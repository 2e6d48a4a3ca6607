// Package profile persists neurodiversity profiles in Redis.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/adaptation"
)

// Config configures the Redis store.
type Config struct {
	Prefix string        // key prefix, default "sense:profile:"
	TTL    time.Duration // 0 = no expiry
}

// RedisStore implements adaptation.ProfileStore. Profiles are stored as JSON
// under "{prefix}{userID}".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, cfg Config) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = "sense:profile:"
	}
	return &RedisStore{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client, cfg), nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

// Get loads a profile. Missing users return adaptation.ErrProfileNotFound.
func (s *RedisStore) Get(ctx context.Context, userID string) (models.NeurodiversityProfile, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NeurodiversityProfile{}, adaptation.ErrProfileNotFound
	}
	if err != nil {
		return models.NeurodiversityProfile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}

	var p models.NeurodiversityProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.NeurodiversityProfile{}, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return p, nil
}

// Put stores a profile, replacing any previous value.
func (s *RedisStore) Put(ctx context.Context, userID string, p models.NeurodiversityProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put profile %s: %w", userID, err)
	}
	return nil
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ adaptation.ProfileStore = (*RedisStore)(nil)
