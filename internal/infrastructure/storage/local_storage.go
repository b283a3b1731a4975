package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"clip-server/internal/config"
	"clip-server/internal/domain/video"
	"clip-server/internal/infrastructure/metrics"
)

// LocalStorage stores objects on the local filesystem, one directory per
// bucket. It is the development stand-in for the S3 backend and honors the
// same contract, including the distinguished not-found condition and
// idempotent deletes.
type LocalStorage struct {
	basePath string
	bucket   string
	log      zerolog.Logger
}

// NewLocalStorage creates a new local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		return nil, fmt.Errorf("CLIP_LOCAL_STORAGE_PATH is required for the local backend")
	}

	storage := &LocalStorage{
		basePath: basePath,
		bucket:   cfg.StorageBucket,
		log:      logger,
	}

	logger.Info().
		Str("path", basePath).
		Str("bucket", cfg.StorageBucket).
		Msg("local storage initialized")

	return storage, nil
}

func (l *LocalStorage) objectPath(key string) string {
	return filepath.Join(l.basePath, l.bucket, filepath.FromSlash(key))
}

// EnsureBucket creates the bucket directory when it does not exist yet.
func (l *LocalStorage) EnsureBucket(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(l.basePath, l.bucket), 0o755); err != nil {
		return fmt.Errorf("create bucket directory: %w", err)
	}
	return nil
}

func (l *LocalStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	fullPath := l.objectPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		metrics.RecordStorageOperation("local", "put", err)
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		metrics.RecordStorageOperation("local", "put", err)
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	metrics.RecordStorageOperation("local", "put", err)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	l.log.Debug().
		Str("key", key).
		Int64("bytes", written).
		Msg("object written to local storage")

	return nil
}

func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	file, err := os.Open(l.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			metrics.RecordStorageOperation("local", "get", nil)
			return nil, "", video.ErrObjectNotFound
		}
		metrics.RecordStorageOperation("local", "get", err)
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	metrics.RecordStorageOperation("local", "get", nil)
	return file, detectContentTypeFromPath(key), nil
}

// Delete removes an object. A missing key is not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.objectPath(key))
	if err != nil && !os.IsNotExist(err) {
		metrics.RecordStorageOperation("local", "delete", err)
		return fmt.Errorf("remove file: %w", err)
	}
	metrics.RecordStorageOperation("local", "delete", nil)
	return nil
}

func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := os.Stat(l.objectPath(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return true, nil
}

// Health checks that the bucket directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	testFile := filepath.Join(l.basePath, l.bucket, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

// detectContentTypeFromPath determines the content type from the extension.
func detectContentTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
