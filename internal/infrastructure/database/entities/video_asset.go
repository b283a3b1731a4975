package entities

import "time"

// VideoAsset represents the persisted video metadata row.
type VideoAsset struct {
	ID              string    `gorm:"type:varchar(96);primaryKey"`
	OwnerID         string    `gorm:"type:varchar(64);not null;index"`
	Title           string    `gorm:"type:varchar(255)"`
	Description     string    `gorm:"type:text"`
	ObjectKey       string    `gorm:"type:varchar(255);not null"`
	PreviewKey      string    `gorm:"type:varchar(255)"` // empty when preview generation failed
	DurationSeconds int       `gorm:"not null"`
	ViewCount       int64     `gorm:"not null;default:0"`
	LikeCount       int64     `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (VideoAsset) TableName() string {
	return "video_assets"
}
