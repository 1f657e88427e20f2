package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/hospital-booking-mcp/internal/config"
	"github.com/wolfman30/hospital-booking-mcp/internal/names"
	"github.com/wolfman30/hospital-booking-mcp/internal/slotcache"
	"github.com/wolfman30/hospital-booking-mcp/pkg/logging"
)

// Cache backends accepted in CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

const memorySweepEvery = time.Minute

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSlotCache picks the availability cache backend. A redis backend that
// cannot be reached degrades to the in-memory cache. The memory cache is
// swept until ctx is done. The returned close func releases the redis client.
func BuildSlotCache(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (slotcache.Cache, func()) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch cfg.CacheBackend {
	case CacheNone:
		logger.Info("availability cache disabled")
		return slotcache.Nop{}, noop
	case CacheRedis:
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("availability cache backed by redis", "addr", cfg.RedisAddr, "ttl", cfg.SlotCacheTTL.String())
			return slotcache.NewRedis(client, cfg.SlotCacheTTL, logger), func() { _ = client.Close() }
		}
		logger.Warn("redis cache unavailable; falling back to memory")
	case CacheMemory, "":
	default:
		logger.Warn("unknown cache backend; using memory", "backend", cfg.CacheBackend)
	}

	mem := slotcache.NewMemory(cfg.SlotCacheTTL)
	go sweepMemory(ctx, mem, logger)
	return mem, noop
}

func sweepMemory(ctx context.Context, mem *slotcache.Memory, logger *logging.Logger) {
	ticker := time.NewTicker(memorySweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				logger.Debug("swept expired availability", "removed", n, "remaining", mem.Len())
			}
		}
	}
}

// LoadNameTable loads the transliteration table. A configured source that
// fails to load falls back to the built-in table so search keeps working.
func LoadNameTable(ctx context.Context, cfg *appconfig.Config, getter names.ObjectGetter, logger *logging.Logger) *names.Table {
	if logger == nil {
		logger = logging.Default()
	}
	table, err := names.Load(ctx, cfg.NameTableSource, getter)
	if err != nil {
		logger.Warn("name table load failed; using built-in table", "source", cfg.NameTableSource, "error", err)
		return names.Default()
	}
	logger.Info("name table loaded", "source", sourceLabel(cfg.NameTableSource), "entries", table.Len())
	return table
}

func sourceLabel(source string) string {
	if strings.TrimSpace(source) == "" {
		return "builtin"
	}
	return source
}
