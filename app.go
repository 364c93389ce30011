package main

import (
	"context"
	"errors"
	"fmt"

	"cwp_reporting/internal/config"
	"cwp_reporting/src"
	"cwp_reporting/src/datalake"
	"cwp_reporting/src/entity"
	"cwp_reporting/src/export"
	"cwp_reporting/src/logger"
	"cwp_reporting/src/state"
	"cwp_reporting/src/storage"
	"cwp_reporting/src/workflow"
)

var errNoDataLake = errors.New("DATALAKE_BASE_URL is not set")

// app holds the wired dependencies of one CLI invocation
type app struct {
	config *src.Config
	api    datalake.API
	redis  *storage.RedisStorage
	store  *state.Store
	writer *export.Writer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := src.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	a := &app{config: cfg}
	a.api = datalake.NewClient(cfg.DataLakeConfig, logger.With("datalake"))

	var repo state.Repository = state.NewMemoryRepository(cfg.StateTTL)
	if cfg.RedisURL != "" {
		rs, err := storage.NewRedisStorage(ctx, cfg.RedisURL, storage.DefaultPrefix)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, running without cache")
		} else {
			a.redis = rs
			a.api = datalake.NewCachedAPI(a.api, rs, cfg.CacheConfig.TTL, logger.With("cache"))
			repo = state.NewRedisRepository(rs, cfg.StateTTL)
		}
	}

	a.store = state.NewStore(repo, logger.With("state"))
	a.writer = export.NewWriter(cfg.ExportConfig.Dir, cfg.ExportConfig.Gzip, logger.With("export"))
	return a, nil
}

// workflows resolves the entity sets and builds the workflow service.
func (a *app) workflows(ctx context.Context) (*workflow.Service, error) {
	if a.config.DataLakeConfig.BaseURL == "" {
		return nil, errNoDataLake
	}
	schema, err := config.LoadSchema(a.config.SchemaFile)
	if err != nil {
		return nil, err
	}
	sets, err := entity.Resolve(ctx, a.api, schema)
	if err != nil {
		return nil, err
	}
	return workflow.NewService(a.api, sets, a.config.DataLakeConfig, logger.With("workflow")), nil
}

func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
