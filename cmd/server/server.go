package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
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

// @title Clip API
// @version 1.0
// @description Short video ingest and playback service
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DBPostgresqlDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	store, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure storage bucket")
	}

	resultCache, err := provideCache(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize cache")
	}

	videoRepository := repo.NewRepository(db)
	transcoder := transcode.NewWorker(cfg, log)
	ledger := reward.NewClient(cfg, log)
	videoService := domain.NewService(cfg, videoRepository, store, transcoder, resultCache, ledger, log)

	httpServer := httpserver.New(cfg, log, videoService, store)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// provideStorage creates the configured object store backend.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.ObjectStore, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(cfg, log)
	}
	return storage.NewS3Storage(ctx, cfg, log)
}

// provideCache selects Redis when an address is configured, the in-process
// cache otherwise.
func provideCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Cache, error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("no redis address configured, using in-process cache")
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(ctx, cfg, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
