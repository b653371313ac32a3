package reset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "smartlegal:reset:"

// RedisStore keeps entries in Redis so they survive restarts and are shared
// between instances. Keys carry the token fingerprint, never the raw token,
// and expire natively.
type RedisStore struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("reset: redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

// redisEntry is the stored form. The raw token is omitted.
type redisEntry struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func redisKey(token string) string {
	return redisKeyPrefix + cryptox.FingerprintToken(token)
}

func (s *RedisStore) Put(ctx context.Context, entry domain.ResetTokenEntry) error {
	data, err := json.Marshal(redisEntry{
		UserID:    entry.UserID,
		Email:     entry.Email,
		ExpiresAt: entry.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}

	return s.client.SetArgs(ctx, redisKey(entry.Token), data, redis.SetArgs{
		ExpireAt: entry.ExpiresAt,
	}).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (domain.ResetTokenEntry, error) {
	data, err := s.client.Get(ctx, redisKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ResetTokenEntry{}, ErrNotFound
	}
	if err != nil {
		return domain.ResetTokenEntry{}, err
	}

	var e redisEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return domain.ResetTokenEntry{}, fmt.Errorf("reset: decode entry: %w", err)
	}
	return domain.ResetTokenEntry{
		Token:     token,
		UserID:    e.UserID,
		Email:     e.Email,
		ExpiresAt: e.ExpiresAt,
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Del(ctx, redisKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Sweep is a no-op; Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) { return 0, nil }

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
