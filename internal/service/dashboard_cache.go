package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	dashboardKeyPrefix     = "kpi:admin_dashboard"
	dashboardGenerationKey = dashboardKeyPrefix + ":generation"
)

// DashboardInvalidator is notified by every write that changes what the admin
// dashboard aggregates.
type DashboardInvalidator interface {
	InvalidateDashboards(ctx context.Context)
}

// DashboardCache keeps admin dashboard payloads in Redis. Entries are keyed by a
// generation counter; invalidating bumps the counter so older entries are never read
// again and simply expire. A nil client or a non-positive TTL disables the cache.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewDashboardCache constructs the dashboard cache.
func NewDashboardCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *DashboardCache {
	return &DashboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "dashboard_cache").Logger(),
	}
}

// Enabled reports whether lookups and stores reach Redis.
func (c *DashboardCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Key returns the cache key of a date filter in the current generation.
func (c *DashboardCache) Key(ctx context.Context, from, to string) (string, error) {
	generation, err := c.client.Get(ctx, dashboardGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read dashboard generation: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s:%s", dashboardKeyPrefix, generation, from, to), nil
}

// Get returns the cached payload for key. A miss yields (nil, false, nil).
func (c *DashboardCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Set stores payload under key for the configured TTL.
func (c *DashboardCache) Set(ctx context.Context, key string, payload []byte) error {
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// InvalidateDashboards starts a new generation. Failures are logged only; the stale
// entries still expire with their TTL.
func (c *DashboardCache) InvalidateDashboards(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Incr(ctx, dashboardGenerationKey).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func invalidateDashboards(ctx context.Context, dashboards DashboardInvalidator) {
	if dashboards != nil {
		dashboards.InvalidateDashboards(ctx)
	}
}
