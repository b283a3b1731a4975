//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clip-server/internal/config"
	domain "clip-server/internal/domain/video"
	"clip-server/internal/infrastructure/cache"
	"clip-server/internal/infrastructure/database"
	"clip-server/internal/infrastructure/logger"
	"clip-server/internal/infrastructure/reward"
	repo "clip-server/internal/infrastructure/repository/video"
	"clip-server/internal/infrastructure/storage"
	"clip-server/internal/infrastructure/transcode"
	"clip-server/internal/interfaces/httpserver"
)

var videoSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Repository), new(*repo.Repository)),
	wireStorage,
	wireCache,
	transcode.NewWorker,
	wire.Bind(new(domain.Transcoder), new(*transcode.Worker)),
	reward.NewClient,
	wire.Bind(new(domain.RewardLedger), new(*reward.Client)),
	domain.NewService,
)

// BuildApplication assembles the clip API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		videoSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DBPostgresqlDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// wireStorage creates the object store backend based on configuration.
func wireStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.ObjectStore, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(cfg, log)
	}
	return storage.NewS3Storage(ctx, cfg, log)
}

// wireCache selects Redis when an address is configured.
func wireCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Cache, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, cfg, log)
}
