package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"clip-server/internal/config"
	"clip-server/internal/infrastructure/metrics"
	"clip-server/internal/utils/videokey"
)

// previewFrameFraction is the point of the clip the still frame is taken at.
const previewFrameFraction = 0.5

// Repository defines persistence operations needed by the service.
type Repository interface {
	Create(ctx context.Context, asset *VideoAsset) error
	GetByID(ctx context.Context, id string) (*VideoAsset, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) error
}

// ObjectStore defines the object storage operations. Get and Exists report
// a missing key through ErrObjectNotFound / false rather than a generic
// error; Delete of a missing key succeeds.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	EnsureBucket(ctx context.Context) error
	Health(ctx context.Context) error
}

// Transcoder defines the external transcoding tool operations.
type Transcoder interface {
	ProbeDuration(ctx context.Context, localPath string) (float64, error)
	TrimToMax(ctx context.Context, localPath string, maxSeconds int) (string, error)
	ExtractPreviewFrame(ctx context.Context, localPath string, atFraction float64) (string, error)
}

// Cache defines the short-TTL result cache operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// RewardLedger credits an owner after a successful ingest. The call is
// fire-and-forget; its failure never affects the ingest result.
type RewardLedger interface {
	Credit(ctx context.Context, ownerID string, amount int64, reason, videoID string) error
}

// Service orchestrates the ingest saga and the read/delete paths.
type Service struct {
	cfg        *config.Config
	repo       Repository
	store      ObjectStore
	transcoder Transcoder
	cache      Cache
	ledger     RewardLedger
	log        zerolog.Logger
}

func NewService(cfg *config.Config, repo Repository, store ObjectStore, transcoder Transcoder, cache Cache, ledger RewardLedger, log zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		repo:       repo,
		store:      store,
		transcoder: transcoder,
		cache:      cache,
		ledger:     ledger,
		log:        log.With().Str("component", "video-service").Logger(),
	}
}

// compensation undoes one previously successful side effect on abort.
type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

// Ingest runs the upload pipeline:
//
//	VALIDATED -> PROBED -> (TRIMMED?) -> MEDIA_UPLOADED
//	  -> (PREVIEW_UPLOADED?) -> RECORD_CREATED -> CACHED -> DONE
//
// Every stage that produced an external side effect pushes a compensation;
// on any fatal stage failure the stack unwinds in reverse order and the
// triggering error is returned. Preview extraction and the cache write are
// best-effort and never abort the ingest.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*VideoAsset, error) {
	temps := []string{req.LocalFilePath}
	defer func() { s.removeTempFiles(temps) }()

	var comps []compensation
	fail := func(kind ErrorKind, op string, err error) error {
		s.runCompensations(comps)
		metrics.RecordIngest(string(kind))
		return E(kind, op, err)
	}

	// VALIDATED: no side effects yet, fail fast.
	contentType, err := s.validateSpool(req.LocalFilePath)
	if err != nil {
		return nil, fail(KindInvalidInput, "validate upload", err)
	}

	// PROBED
	probeStart := time.Now()
	probed, err := s.transcoder.ProbeDuration(ctx, req.LocalFilePath)
	metrics.RecordStage("probe", time.Since(probeStart).Seconds())
	if err != nil {
		return nil, fail(KindTranscodeFailure, "probe duration", err)
	}

	// TRIMMED (conditional): over-length input is re-encoded down to the
	// configured maximum; the trimmed file becomes the upload source.
	uploadPath := req.LocalFilePath
	durationSeconds := int(math.Round(probed))
	if durationSeconds > s.cfg.MaxDurationSeconds {
		trimStart := time.Now()
		trimmed, err := s.transcoder.TrimToMax(ctx, req.LocalFilePath, s.cfg.MaxDurationSeconds)
		metrics.RecordStage("trim", time.Since(trimStart).Seconds())
		if err != nil {
			return nil, fail(KindTranscodeFailure, "trim to max duration", err)
		}
		temps = append(temps, trimmed)
		uploadPath = trimmed
		durationSeconds = s.cfg.MaxDurationSeconds
		contentType = "video/mp4"
	}

	now := time.Now().UTC()
	id := videokey.DeriveID(req.OwnerID, now.UnixMilli())
	objectKey := videokey.DeriveKey(id, req.OriginalFilename)

	// MEDIA_UPLOADED: first side effect.
	uploadStart := time.Now()
	err = s.uploadFile(ctx, objectKey, uploadPath, contentType)
	metrics.RecordStage("upload_media", time.Since(uploadStart).Seconds())
	if err != nil {
		return nil, fail(KindStorageFailure, "upload media object", err)
	}
	comps = append(comps, compensation{
		name: "delete media object",
		fn:   func(ctx context.Context) error { return s.store.Delete(ctx, objectKey) },
	})

	// PREVIEW_UPLOADED: best-effort degraded-success path. A failure here
	// is logged and the ingest proceeds without a preview key.
	previewKey := ""
	if framePath, previewComp, err := s.uploadPreview(ctx, id, uploadPath); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("preview generation failed, continuing without preview")
	} else {
		temps = append(temps, framePath)
		previewKey = videokey.PreviewKey(id)
		comps = append(comps, previewComp)
	}

	// RECORD_CREATED
	asset := &VideoAsset{
		ID:              id,
		OwnerID:         req.OwnerID,
		Title:           req.Title,
		Description:     req.Description,
		ObjectKey:       objectKey,
		PreviewKey:      previewKey,
		DurationSeconds: durationSeconds,
		CreatedAt:       now,
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, fail(KindPersistenceFailure, "create metadata row", err)
	}
	comps = append(comps, compensation{
		name: "delete metadata row",
		fn:   func(ctx context.Context) error { return s.repo.Delete(ctx, id) },
	})

	// CACHED: non-authoritative, failure logged only.
	if err := s.cacheSet(ctx, asset); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("result cache write failed")
	}

	// DONE
	if previewKey == "" {
		metrics.RecordIngest("degraded")
	} else {
		metrics.RecordIngest("success")
	}
	s.creditUpload(asset)

	s.log.Info().
		Str("video_id", id).
		Str("owner_id", req.OwnerID).
		Int("duration_seconds", durationSeconds).
		Bool("has_preview", previewKey != "").
		Msg("video ingested")
	return asset, nil
}

// GetMetadata resolves a video through the result cache. A cached entry
// whose object no longer resolves is treated as stale: it is invalidated
// and the lookup falls through to the metadata store.
func (s *Service) GetMetadata(ctx context.Context, id string) (*VideoAsset, error) {
	key := cacheKey(id)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("result cache read failed")
	} else if ok {
		var cached VideoAsset
		if err := json.Unmarshal(data, &cached); err == nil {
			if exists, err := s.store.Exists(ctx, cached.ObjectKey); err == nil && exists {
				metrics.CacheHitsTotal.Inc()
				return &cached, nil
			}
			// The cache outlived an out-of-band deletion.
			if err := s.cache.Invalidate(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("video_id", id).Msg("stale cache invalidation failed")
			}
		}
	}
	metrics.CacheMissesTotal.Inc()

	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, E(KindNotFound, "get video "+id, nil)
	}

	exists, err := s.store.Exists(ctx, asset.ObjectKey)
	if err != nil {
		return nil, E(KindStorageFailure, "check media object", err)
	}
	if !exists {
		// Row without object: the creation invariant was broken out-of-band.
		s.log.Error().Str("video_id", id).Str("object_key", asset.ObjectKey).Msg("metadata row references missing object")
		return nil, E(KindNotFound, "get video "+id, nil)
	}

	if err := s.cacheSet(ctx, asset); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("result cache write failed")
	}
	return asset, nil
}

// GetStream resolves metadata and proxies the media object's byte stream.
func (s *Service) GetStream(ctx context.Context, id string) (io.ReadCloser, string, error) {
	asset, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, "", err
	}

	reader, mime, err := s.store.Get(ctx, asset.ObjectKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			if cerr := s.cache.Invalidate(ctx, cacheKey(id)); cerr != nil {
				s.log.Warn().Err(cerr).Str("video_id", id).Msg("stale cache invalidation failed")
			}
			return nil, "", E(KindNotFound, "stream video "+id, err)
		}
		return nil, "", E(KindStorageFailure, "stream video "+id, err)
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("view count increment failed")
	}
	return reader, mime, nil
}

// GetPreview proxies the derived still frame. Videos ingested on the
// degraded path have no preview and yield NotFound.
func (s *Service) GetPreview(ctx context.Context, id string) (io.ReadCloser, string, error) {
	asset, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if asset.PreviewKey == "" {
		return nil, "", E(KindNotFound, "preview for video "+id, nil)
	}

	reader, mime, err := s.store.Get(ctx, asset.PreviewKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, "", E(KindNotFound, "preview for video "+id, err)
		}
		return nil, "", E(KindStorageFailure, "preview for video "+id, err)
	}
	return reader, mime, nil
}

// Delete removes the object-store entries first and the metadata row
// second, mirroring creation order. Deleting an unknown id yields NotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return E(KindNotFound, "delete video "+id, nil)
	}

	if asset.PreviewKey != "" {
		if err := s.store.Delete(ctx, asset.PreviewKey); err != nil {
			return E(KindStorageFailure, "delete preview object", err)
		}
	}
	if err := s.store.Delete(ctx, asset.ObjectKey); err != nil {
		return E(KindStorageFailure, "delete media object", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("cache invalidation failed")
	}

	s.log.Info().Str("video_id", id).Msg("video deleted")
	return nil
}

// Like increments the like counter and drops the cached metadata so reads
// do not serve a stale count for the full TTL.
func (s *Service) Like(ctx context.Context, id string) error {
	if err := s.repo.IncrementLikes(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn().Err(err).Str("video_id", id).Msg("cache invalidation failed")
	}
	return nil
}

// validateSpool confirms the spooled file is non-empty and readable and
// returns its detected content type. MIME allow-listing belongs to the
// upstream routing layer; ffprobe is the authority on media readability.
func (s *Service) validateSpool(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("spooled file unreadable: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("spooled file is empty")
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("spooled file unreadable: %w", err)
	}
	return mtype.String(), nil
}

func (s *Service) uploadFile(ctx context.Context, key, path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return s.store.Put(ctx, key, file, info.Size(), contentType)
}

// uploadPreview extracts and uploads the still frame. On success it returns
// the frame's temp path and the compensation that removes the uploaded
// preview if a later stage aborts the ingest.
func (s *Service) uploadPreview(ctx context.Context, id, uploadPath string) (string, compensation, error) {
	stageStart := time.Now()
	defer func() { metrics.RecordStage("preview", time.Since(stageStart).Seconds()) }()

	framePath, err := s.transcoder.ExtractPreviewFrame(ctx, uploadPath, previewFrameFraction)
	if err != nil {
		return "", compensation{}, E(KindPreviewFailure, "extract preview frame", err)
	}

	previewKey := videokey.PreviewKey(id)
	if err := s.uploadFile(ctx, previewKey, framePath, "image/jpeg"); err != nil {
		// Nothing was uploaded, so no compensation is needed; the frame file
		// still has to be cleaned up by the caller.
		s.removeTempFiles([]string{framePath})
		return "", compensation{}, E(KindPreviewFailure, "upload preview object", err)
	}

	comp := compensation{
		name: "delete preview object",
		fn:   func(ctx context.Context) error { return s.store.Delete(ctx, previewKey) },
	}
	return framePath, comp, nil
}

// runCompensations unwinds the stack in strict reverse order. Each action
// is attempted independently; failures are logged and never re-raised so
// the original pipeline error stays the one surfaced to the caller.
func (s *Service) runCompensations(comps []compensation) {
	// Detached from the request context so a client disconnect cannot
	// leave dangling objects behind.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := len(comps) - 1; i >= 0; i-- {
		err := comps[i].fn(ctx)
		metrics.RecordCompensation(comps[i].name, err)
		if err != nil {
			s.log.Error().Err(err).Str("action", comps[i].name).Msg("compensation failed")
		} else {
			s.log.Debug().Str("action", comps[i].name).Msg("compensation applied")
		}
	}
}

func (s *Service) creditUpload(asset *VideoAsset) {
	if s.ledger == nil {
		return
	}
	ownerID, videoID := asset.OwnerID, asset.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RewardTimeout)
		defer cancel()
		if err := s.ledger.Credit(ctx, ownerID, s.cfg.RewardUploadAmount, "UPLOAD", videoID); err != nil {
			s.log.Warn().Err(err).Str("video_id", videoID).Msg("upload reward credit failed")
		}
	}()
}

func (s *Service) cacheSet(ctx context.Context, asset *VideoAsset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey(asset.ID), data, s.cfg.CacheTTL)
}

func (s *Service) removeTempFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("temp file cleanup failed")
		}
	}
}

func cacheKey(id string) string {
	return "video:" + id
}
