package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// ROUTE CACHE
// =============================================================================

// RouteCache stores routes by key. A miss is (Route{}, false, nil).
type RouteCache interface {
	Get(ctx context.Context, key string) (Route, bool, error)
	Set(ctx context.Context, key string, route Route, ttl time.Duration) error
}

// CachedRouter serves repeated address pairs from a RouteCache. Cache
// failures are logged and the lookup falls through to the next Router.
type CachedRouter struct {
	next   Router
	cache  RouteCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRouter(next Router, cache RouteCache, ttl time.Duration, logger *zap.Logger) *CachedRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRouter{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedRouter) Route(ctx context.Context, origin, destination string) (Route, error) {
	key := RouteKey(origin, destination)

	route, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("route cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		return route, nil
	}

	route, err = c.next.Route(ctx, origin, destination)
	if err != nil {
		return Route{}, err
	}

	if err := c.cache.Set(ctx, key, route, c.ttl); err != nil {
		c.logger.Warn("route cache write failed", zap.String("key", key), zap.Error(err))
	}
	return route, nil
}

// RouteKey normalizes an address pair. Case and runs of whitespace do not
// produce distinct keys.
func RouteKey(origin, destination string) string {
	return "route:" + normalizeAddress(origin) + "|" + normalizeAddress(destination)
}

func normalizeAddress(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// =============================================================================
// REDIS
// =============================================================================

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type RedisRouteCache struct {
	client *redis.Client
}

// NewRedisRouteCache connects and pings the server.
func NewRedisRouteCache(ctx context.Context, cfg RedisConfig) (*RedisRouteCache, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisRouteCache{client: client}, nil
}

func (r *RedisRouteCache) Get(ctx context.Context, key string) (Route, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Route{}, false, nil
	}
	if err != nil {
		return Route{}, false, err
	}

	var route Route
	if err := json.Unmarshal(data, &route); err != nil {
		return Route{}, false, fmt.Errorf("failed to decode cached route: %w", err)
	}
	return route, true, nil
}

func (r *RedisRouteCache) Set(ctx context.Context, key string, route Route, ttl time.Duration) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisRouteCache) Close() error { return r.client.Close() }
