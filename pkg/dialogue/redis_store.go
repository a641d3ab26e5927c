package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "haven:session:"

// RedisStore keeps sessions in Redis with per-key TTL. Expiry is delegated
// to Redis itself, so Sweep is a no-op. Suitable for multi-node deployments
// where the in-memory store would split a user's conversation across nodes.
type RedisStore struct {
	client *redis.Client
	maxAge time.Duration
}

// RedisStoreConfig configures the Redis-backed store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	MaxAge   time.Duration // session TTL (default: 24 hours)
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client, maxAge: cfg.MaxAge}, nil
}

func sessionKey(userID string) string {
	return redisKeyPrefix + userID
}

// Get fetches and decodes a session. A missing key means no session.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get for %s: %w", userID, err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session for %s: %w", userID, err)
	}
	return &session, nil
}

// Save encodes the session and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	if session.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.LastActivity.IsZero() {
		session.LastActivity = time.Now()
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session for %s: %w", session.UserID, err)
	}

	if err := s.client.Set(ctx, sessionKey(session.UserID), data, s.maxAge).Err(); err != nil {
		return fmt.Errorf("redis set for %s: %w", session.UserID, err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del for %s: %w", userID, err)
	}
	return nil
}

// Sweep is a no-op: Redis expires keys by TTL.
func (s *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

// Stats counts live sessions by scanning the key prefix.
func (s *RedisStore) Stats(ctx context.Context) (StoreStats, error) {
	var stats StoreStats
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		stats.SessionCount++
	}
	if err := iter.Err(); err != nil {
		return stats, fmt.Errorf("redis scan: %w", err)
	}
	return stats, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements SessionStore
var _ SessionStore = (*RedisStore)(nil)
