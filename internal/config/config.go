package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the clip service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"clip-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CLIP_API_PORT" envDefault:"8290"`
	LogLevel        string        `env:"CLIP_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	DBPostgresqlDSN string        `env:"DB_POSTGRESQL_DSN,notEmpty"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"CLIP_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"
	StorageBucket  string `env:"CLIP_STORAGE_BUCKET" envDefault:"clips"`

	// Local Storage Configuration
	LocalStoragePath string `env:"CLIP_LOCAL_STORAGE_PATH"` // Root directory holding bucket subdirectories

	// S3 Storage Configuration
	S3Endpoint     string `env:"CLIP_S3_ENDPOINT"`
	S3Region       string `env:"CLIP_S3_REGION" envDefault:"us-west-2"`
	S3AccessKeyID  string `env:"CLIP_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"CLIP_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"CLIP_S3_USE_PATH_STYLE" envDefault:"true"`

	// Transcoding
	FFmpegPath         string        `env:"CLIP_FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath        string        `env:"CLIP_FFPROBE_PATH" envDefault:"ffprobe"`
	MaxDurationSeconds int           `env:"CLIP_MAX_DURATION_SECONDS" envDefault:"30"`
	TranscodeTimeout   time.Duration `env:"CLIP_TRANSCODE_TIMEOUT" envDefault:"2m"`

	// Result Cache
	RedisAddr     string        `env:"CLIP_REDIS_ADDR"` // Empty selects the in-process cache
	RedisPassword string        `env:"CLIP_REDIS_PASSWORD"`
	RedisDB       int           `env:"CLIP_REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CLIP_CACHE_TTL" envDefault:"3600s"`

	// Reward Ledger
	RewardLedgerURL    string        `env:"REWARD_LEDGER_URL"`
	RewardUploadAmount int64         `env:"REWARD_UPLOAD_AMOUNT" envDefault:"10"`
	RewardTimeout      time.Duration `env:"REWARD_TIMEOUT" envDefault:"5s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.StorageBucket = strings.TrimSpace(cfg.StorageBucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	if cfg.StorageBucket == "" {
		return nil, fmt.Errorf("CLIP_STORAGE_BUCKET must not be empty")
	}
	if cfg.MaxDurationSeconds <= 0 {
		cfg.MaxDurationSeconds = 30
	}
	if cfg.IsLocalStorage() && strings.TrimSpace(cfg.LocalStoragePath) == "" {
		return nil, fmt.Errorf("CLIP_LOCAL_STORAGE_PATH is required when CLIP_STORAGE_BACKEND is local")
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if the local filesystem backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if the S3 backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}
