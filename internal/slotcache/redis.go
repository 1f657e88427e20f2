package slotcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

const redisKeyPrefix = "hospital:availability:"

// Redis shares cached availability between server replicas. Redis errors are
// logged and treated as misses so the cache never fails a resolution.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedis wraps a go-redis client; ttl <= 0 uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger.WithComponent("slotcache")}
}

func (r *Redis) Get(ctx context.Context, key Key) (Entry, bool) {
	if r == nil || r.client == nil {
		return Entry{}, false
	}
	raw, err := r.client.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("availability cache read failed", "key", key.String(), "error", err)
		}
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn("availability cache entry corrupt", "key", key.String(), "error", err)
		return Entry{}, false
	}
	return entry, true
}

func (r *Redis) Set(ctx context.Context, key Key, entry Entry) {
	if r == nil || r.client == nil {
		return
	}
	entry.StoredAt = time.Now()
	payload, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("availability cache encode failed", "key", key.String(), "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key.String(), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("availability cache write failed", "key", key.String(), "error", err)
	}
}
