package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/warp/travel-engine/config"
	"github.com/warp/travel-engine/routing"
	"github.com/warp/travel-engine/store/sqldb"
	"github.com/warp/travel-engine/travel"
)

// app holds the wired dependencies shared by every command.
type app struct {
	store      *sqldb.Store
	svc        *travel.Service
	loc        *time.Location
	routerName string

	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dialect, err := sqldb.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	store, err := sqldb.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, loc: loc, closers: []io.Closer{store}}

	estimator, err := a.newEstimator(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.svc = travel.NewService(store, estimator,
		travel.WithLocation(loc),
		travel.WithLogger(logger),
		travel.WithRecalcParallelism(cfg.Travel.RecalcParallelism))
	return a, nil
}

// newEstimator builds Google (retrying, optionally cached) when an API key
// is configured and the offline router otherwise.
func (a *app) newEstimator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*routing.Estimator, error) {
	classifier := routing.DefaultClassifier()
	if cfg.Maps.BandTable != "" {
		c, err := routing.LoadClassifier(cfg.Maps.BandTable)
		if err != nil {
			return nil, err
		}
		classifier = c
	}

	if cfg.Maps.APIKey == "" {
		logger.Warn("no maps API key configured, using offline distance estimates")
		a.routerName = "offline"
		return routing.NewEstimator(routing.OfflineRouter{}, classifier), nil
	}

	google, err := routing.NewGoogleRouter(cfg.Maps.APIKey, cfg.Maps.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	var router routing.Router = routing.NewRetryingRouter(google, routing.RetryConfig{
		MaxAttempts:     cfg.Maps.MaxAttempts,
		InitialInterval: cfg.Maps.InitialInterval,
		MaxInterval:     cfg.Maps.MaxInterval,
		MaxElapsed:      cfg.Maps.MaxElapsed,
	}, logger)
	a.routerName = "google_maps"

	if cfg.Cache.RedisAddr != "" {
		cache, err := routing.NewRedisRouteCache(ctx, routing.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cache)
		router = routing.NewCachedRouter(router, cache, cfg.Cache.TTL, logger)
		a.routerName = "google_maps+redis"
	}

	return routing.NewEstimator(router, classifier), nil
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}
