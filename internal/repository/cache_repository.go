package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// scanBatch bounds how many keys one SCAN round trip returns and one UNLINK removes.
const scanBatch = 100

// CacheRepository keeps proposals, job state and timetable details as JSON
// documents in Redis. Without a client every read misses and every write is dropped.
type CacheRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewCacheRepository wires the repository to an optional Redis client.
func NewCacheRepository(client redis.UniversalClient, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

func (r *CacheRepository) offline() bool { return r.client == nil }

// Get decodes the document stored under key into dest.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.offline() {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("cache read %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %q: %w", key, err)
	}
	return nil
}

// Set encodes value under key. A non-positive ttl keeps whatever expiry the
// key already carries, so rewriting an edited proposal does not extend its life.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.offline() {
		return nil
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	args := redis.SetArgs{TTL: ttl}
	if ttl <= 0 {
		args = redis.SetArgs{KeepTTL: true}
	}
	if err := r.client.SetArgs(ctx, key, doc, args).Err(); err != nil {
		return fmt.Errorf("cache write %q: %w", key, err)
	}
	return nil
}

// Delete unlinks a single key.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if r.offline() {
		return nil
	}
	if err := r.client.Unlink(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

// DeleteByPattern walks the keyspace with SCAN and unlinks matches in batches.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.offline() {
		return nil
	}

	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("cache scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Unlink(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("cache unlink %d keys for %q: %w", len(keys), pattern, err)
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	r.logger.Debug("cache pattern cleared", zap.String("pattern", pattern), zap.Int64("removed", removed))
	return nil
}

// Close shuts the client down when one was supplied.
func (r *CacheRepository) Close() error {
	if r.offline() {
		return nil
	}
	return r.client.Close()
}
