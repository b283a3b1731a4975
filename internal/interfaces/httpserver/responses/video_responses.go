package responses

import (
	"fmt"
	"time"

	"clip-server/internal/domain/video"
)

// VideoResponse is the public shape of a video asset.
type VideoResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	MediaURL        string    `json:"media_url"`
	PreviewURL      *string   `json:"preview_url"` // null when preview generation failed
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// BuildVideoResponse creates the response from the domain object.
func BuildVideoResponse(asset *video.VideoAsset) *VideoResponse {
	resp := &VideoResponse{
		ID:              asset.ID,
		OwnerID:         asset.OwnerID,
		Title:           asset.Title,
		Description:     asset.Description,
		MediaURL:        fmt.Sprintf("/v1/videos/%s/stream", asset.ID),
		DurationSeconds: asset.DurationSeconds,
		ViewCount:       asset.ViewCount,
		LikeCount:       asset.LikeCount,
		CreatedAt:       asset.CreatedAt,
	}
	if asset.PreviewKey != "" {
		previewURL := fmt.Sprintf("/v1/videos/%s/preview", asset.ID)
		resp.PreviewURL = &previewURL
	}
	return resp
}
