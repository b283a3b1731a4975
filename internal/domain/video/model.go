package video

import "time"

// VideoAsset represents stored video metadata. It is also the value
// serialized into the result cache.
type VideoAsset struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	ObjectKey       string    `json:"object_key"`
	PreviewKey      string    `json:"preview_key,omitempty"` // empty when preview generation failed
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// IngestRequest is the contract handed over by the upload handler after the
// request body has been spooled to local disk.
type IngestRequest struct {
	OwnerID          string
	LocalFilePath    string
	OriginalFilename string
	Title            string
	Description      string
}
