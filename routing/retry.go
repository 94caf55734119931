package routing

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// RETRY WITH EXPONENTIAL BACKOFF
// =============================================================================

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     4,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     4 * time.Second,
		MaxElapsed:      20 * time.Second,
	}
}

// RetryingRouter retries retryable provider errors. Anything else is
// returned after the first attempt.
type RetryingRouter struct {
	next   Router
	cfg    RetryConfig
	logger *zap.Logger
}

func NewRetryingRouter(next Router, cfg RetryConfig, logger *zap.Logger) *RetryingRouter {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingRouter{next: next, cfg: cfg, logger: logger}
}

func (r *RetryingRouter) Route(ctx context.Context, origin, destination string) (Route, error) {
	eb := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		eb.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		eb.MaxInterval = r.cfg.MaxInterval
	}
	eb.MaxElapsedTime = r.cfg.MaxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.cfg.MaxAttempts-1)), ctx)

	attempt := 0
	op := func() (Route, error) {
		attempt++
		route, err := r.next.Route(ctx, origin, destination)
		if err != nil && !travel.IsRetryable(err) {
			return Route{}, backoff.Permanent(err)
		}
		return route, err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("route lookup failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	return backoff.RetryNotifyWithData(op, policy, notify)
}
