package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"clip-server/internal/config"
	domain "clip-server/internal/domain/video"
	"clip-server/internal/interfaces/httpserver/handlers"
	"clip-server/internal/interfaces/httpserver/responses"
)

// MockRepository is a function-field mock of domain.Repository.
type MockRepository struct {
	CreateFunc         func(ctx context.Context, asset *domain.VideoAsset) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.VideoAsset, error)
	DeleteFunc         func(ctx context.Context, id string) error
	IncrementViewsFunc func(ctx context.Context, id string) error
	IncrementLikesFunc func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, asset *domain.VideoAsset) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, asset)
	}
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.VideoAsset, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockRepository) IncrementViews(ctx context.Context, id string) error {
	if m.IncrementViewsFunc != nil {
		return m.IncrementViewsFunc(ctx, id)
	}
	return nil
}

func (m *MockRepository) IncrementLikes(ctx context.Context, id string) error {
	if m.IncrementLikesFunc != nil {
		return m.IncrementLikesFunc(ctx, id)
	}
	return nil
}

// MockObjectStore is a function-field mock of domain.ObjectStore.
type MockObjectStore struct {
	PutFunc    func(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GetFunc    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	DeleteFunc func(ctx context.Context, key string) error
	ExistsFunc func(ctx context.Context, key string) (bool, error)
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, body, size, contentType)
	}
	return nil
}

func (m *MockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return io.NopCloser(bytes.NewReader(nil)), "application/octet-stream", nil
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *MockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, key)
	}
	return true, nil
}

func (m *MockObjectStore) EnsureBucket(ctx context.Context) error { return nil }

func (m *MockObjectStore) Health(ctx context.Context) error { return nil }

// MockTranscoder is a function-field mock of domain.Transcoder.
type MockTranscoder struct {
	ProbeDurationFunc       func(ctx context.Context, localPath string) (float64, error)
	ExtractPreviewFrameFunc func(ctx context.Context, localPath string, atFraction float64) (string, error)
}

func (m *MockTranscoder) ProbeDuration(ctx context.Context, localPath string) (float64, error) {
	if m.ProbeDurationFunc != nil {
		return m.ProbeDurationFunc(ctx, localPath)
	}
	return 10, nil
}

func (m *MockTranscoder) TrimToMax(ctx context.Context, localPath string, maxSeconds int) (string, error) {
	return localPath, nil
}

func (m *MockTranscoder) ExtractPreviewFrame(ctx context.Context, localPath string, atFraction float64) (string, error) {
	if m.ExtractPreviewFrameFunc != nil {
		return m.ExtractPreviewFrameFunc(ctx, localPath, atFraction)
	}
	return localPath, nil
}

// MockCache is a no-op domain.Cache.
type MockCache struct{}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (m *MockCache) Invalidate(ctx context.Context, key string) error { return nil }

// MockRewardLedger is a no-op domain.RewardLedger.
type MockRewardLedger struct{}

func (m *MockRewardLedger) Credit(ctx context.Context, ownerID string, amount int64, reason, videoID string) error {
	return nil
}

func setupRouter(repo *MockRepository, store *MockObjectStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		MaxDurationSeconds: 30,
		CacheTTL:           time.Minute,
		RewardTimeout:      time.Second,
	}
	service := domain.NewService(cfg, repo, store, &MockTranscoder{}, &MockCache{}, &MockRewardLedger{}, zerolog.Nop())
	handler := handlers.NewVideoHandler(cfg, service, zerolog.Nop())

	r := gin.New()
	r.POST("/v1/videos", handler.Upload)
	r.GET("/v1/videos/:id", handler.GetMetadata)
	r.GET("/v1/videos/:id/stream", handler.Stream)
	r.GET("/v1/videos/:id/preview", handler.Preview)
	r.POST("/v1/videos/:id/like", handler.Like)
	r.DELETE("/v1/videos/:id", handler.Delete)
	return r
}

func TestUploadRequiresOwnerID(t *testing.T) {
	router := setupRouter(&MockRepository{}, &MockObjectStore{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	router := setupRouter(&MockRepository{}, &MockObjectStore{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("owner_id", "alice"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMetadataNotFound(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.VideoAsset, error) {
			return nil, nil
		},
	}
	router := setupRouter(repo, &MockObjectStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/absent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var body responses.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, string(domain.KindNotFound), body.Code)
}

func TestGetMetadataResponseShape(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.VideoAsset, error) {
			return &domain.VideoAsset{
				ID:              "alice-42",
				OwnerID:         "alice",
				ObjectKey:       "videos/alice-42/clip.mp4",
				PreviewKey:      "videos/alice-42/preview.jpg",
				DurationSeconds: 12,
			}, nil
		},
	}
	router := setupRouter(repo, &MockObjectStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/alice-42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body responses.VideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "alice-42", body.ID)
	require.Equal(t, "/v1/videos/alice-42/stream", body.MediaURL)
	require.NotNil(t, body.PreviewURL)
	require.Equal(t, "/v1/videos/alice-42/preview", *body.PreviewURL)
}

func TestGetMetadataDegradedAssetHasNullPreview(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.VideoAsset, error) {
			return &domain.VideoAsset{ID: "bob-1", OwnerID: "bob", ObjectKey: "videos/bob-1/media"}, nil
		},
	}
	router := setupRouter(repo, &MockObjectStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/bob-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body responses.VideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Nil(t, body.PreviewURL)
}

func TestStreamProxiesBytes(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.VideoAsset, error) {
			return &domain.VideoAsset{ID: "v1", ObjectKey: "videos/v1/media"}, nil
		},
	}
	store := &MockObjectStore{
		GetFunc: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return io.NopCloser(bytes.NewReader([]byte("video payload"))), "video/mp4", nil
		},
	}
	router := setupRouter(repo, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/v1/stream", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	require.Equal(t, "video payload", w.Body.String())
}

func TestLikeReturnsNoContent(t *testing.T) {
	liked := false
	repo := &MockRepository{
		IncrementLikesFunc: func(ctx context.Context, id string) error {
			liked = true
			return nil
		},
	}
	router := setupRouter(repo, &MockObjectStore{})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos/v1/like", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, liked)
}

func TestDeleteUnknownVideo(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.VideoAsset, error) {
			return nil, nil
		},
	}
	router := setupRouter(repo, &MockObjectStore{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/videos/absent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
