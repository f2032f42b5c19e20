package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/nectar-erp/nectar-erp/internal/platform/cache"
)

// StatsCache serves dashboard counters from Redis, rebuilding through a
// singleflight group so a cold key triggers exactly one database scan.
type StatsCache struct {
	repo   Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewStatsCache constructs the cache. A nil client degrades to direct
// repository scans.
func NewStatsCache(repo Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	return &StatsCache{repo: repo, client: client, ttl: ttl, logger: logger}
}

func (c *StatsCache) key() string {
	return cache.Key(Module, "stats")
}

// Stats returns the dashboard counters, cached.
func (c *StatsCache) Stats(ctx context.Context) (Stats, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, c.key()).Bytes()
		if err == nil {
			var s Stats
			if err := json.Unmarshal(raw, &s); err == nil {
				return s, nil
			}
		} else if err != redis.Nil {
			c.logger.Warn("stats cache read", slog.Any("error", err))
		}
	}

	v, err, _ := c.group.Do(c.key(), func() (any, error) {
		s, err := c.repo.CountStats(ctx)
		if err != nil {
			return Stats{}, err
		}
		if c.client != nil {
			if raw, err := json.Marshal(s); err == nil {
				if err := c.client.Set(ctx, c.key(), raw, c.ttl).Err(); err != nil {
					c.logger.Warn("stats cache write", slog.Any("error", err))
				}
			}
		}
		return s, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

// Invalidate drops the cached counters after a mutation.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key()).Err(); err != nil {
		c.logger.Warn("stats cache invalidate", slog.Any("error", err))
	}
}
