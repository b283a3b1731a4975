package handlers

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clip-server/internal/config"
	domain "clip-server/internal/domain/video"
	"clip-server/internal/interfaces/httpserver/responses"
)

// VideoHandler exposes the video endpoints.
type VideoHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewVideoHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "video-handler").Logger(),
	}
}

// Upload godoc
// @Summary      Upload a short video
// @Description  Accepts a multipart upload, spools it to disk and runs the ingest pipeline.
// @Tags         videos
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true   "Video file"
// @Param        owner_id     formData  string  true   "Uploading account"
// @Param        title        formData  string  false  "Title"
// @Param        description  formData  string  false  "Description"
// @Success      201  {object}  responses.VideoResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /v1/videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	ownerID := strings.TrimSpace(c.PostForm("owner_id"))
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "owner_id is required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "file is required"})
		return
	}
	defer file.Close()

	spoolPath, err := h.spool(file)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to spool upload")
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{Error: "failed to read upload"})
		return
	}
	// The service owns the spooled file from here on and removes it on
	// every exit path.

	asset, err := h.service.Ingest(c.Request.Context(), domain.IngestRequest{
		OwnerID:          ownerID,
		LocalFilePath:    spoolPath,
		OriginalFilename: header.Filename,
		Title:            c.PostForm("title"),
		Description:      c.PostForm("description"),
	})
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", ownerID).Msg("ingest failed")
		responses.HandleError(c, err, "ingest failed")
		return
	}

	c.JSON(http.StatusCreated, responses.BuildVideoResponse(asset))
}

// GetMetadata godoc
// @Summary      Get video metadata
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Video ID"
// @Success      200  {object}  responses.VideoResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/videos/{id} [get]
func (h *VideoHandler) GetMetadata(c *gin.Context) {
	asset, err := h.service.GetMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "video not found")
		return
	}
	c.JSON(http.StatusOK, responses.BuildVideoResponse(asset))
}

// Stream godoc
// @Summary      Stream video bytes
// @Description  Proxies the media object through the API without exposing storage URLs.
// @Tags         videos
// @Produce      octet-stream
// @Param        id   path      string  true  "Video ID"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/videos/{id}/stream [get]
func (h *VideoHandler) Stream(c *gin.Context) {
	reader, mime, err := h.service.GetStream(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "video not found")
		return
	}
	defer reader.Close()

	if mime == "" {
		mime = "application/octet-stream"
	}
	c.Header("Content-Type", mime)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Msg("stream error")
	}
}

// Preview godoc
// @Summary      Fetch the preview frame
// @Tags         videos
// @Produce      jpeg
// @Param        id   path      string  true  "Video ID"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/videos/{id}/preview [get]
func (h *VideoHandler) Preview(c *gin.Context) {
	reader, mime, err := h.service.GetPreview(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "preview not found")
		return
	}
	defer reader.Close()

	if mime == "" {
		mime = "image/jpeg"
	}
	c.Header("Content-Type", mime)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Msg("preview stream error")
	}
}

// Like godoc
// @Summary      Like a video
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Video ID"
// @Success      204  "no content"
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/videos/{id}/like [post]
func (h *VideoHandler) Like(c *gin.Context) {
	if err := h.service.Like(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "video not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary      Delete a video
// @Description  Removes the stored objects first and the metadata row second.
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Video ID"
// @Success      204  "no content"
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "video not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// spool copies the upload to a local temp file for the pipeline.
func (h *VideoHandler) spool(file io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "clip-upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
