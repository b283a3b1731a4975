package video

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "clip-server/internal/domain/video"
	"clip-server/internal/infrastructure/database/entities"
)

// Repository handles video asset persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, asset *domain.VideoAsset) error {
	entity := entities.VideoAsset{
		ID:              asset.ID,
		OwnerID:         asset.OwnerID,
		Title:           asset.Title,
		Description:     asset.Description,
		ObjectKey:       asset.ObjectKey,
		PreviewKey:      asset.PreviewKey,
		DurationSeconds: asset.DurationSeconds,
		ViewCount:       asset.ViewCount,
		LikeCount:       asset.LikeCount,
		CreatedAt:       asset.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return domain.E(domain.KindPersistenceFailure, "create video asset", err)
	}
	asset.CreatedAt = entity.CreatedAt
	return nil
}

// GetByID returns (nil, nil) when no row exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.VideoAsset, error) {
	var entity entities.VideoAsset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, domain.E(domain.KindPersistenceFailure, "get video asset by id", err)
	}
	asset := mapEntity(entity)
	return &asset, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.VideoAsset{}).Error; err != nil {
		return domain.E(domain.KindPersistenceFailure, "delete video asset", err)
	}
	return nil
}

func (r *Repository) IncrementViews(ctx context.Context, id string) error {
	return r.incrementCounter(ctx, id, "view_count")
}

func (r *Repository) IncrementLikes(ctx context.Context, id string) error {
	return r.incrementCounter(ctx, id, "like_count")
}

func (r *Repository) incrementCounter(ctx context.Context, id, column string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.VideoAsset{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return domain.E(domain.KindPersistenceFailure, "increment "+column, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.E(domain.KindNotFound, "increment "+column, gorm.ErrRecordNotFound)
	}
	return nil
}

func mapEntity(entity entities.VideoAsset) domain.VideoAsset {
	return domain.VideoAsset{
		ID:              entity.ID,
		OwnerID:         entity.OwnerID,
		Title:           entity.Title,
		Description:     entity.Description,
		ObjectKey:       entity.ObjectKey,
		PreviewKey:      entity.PreviewKey,
		DurationSeconds: entity.DurationSeconds,
		ViewCount:       entity.ViewCount,
		LikeCount:       entity.LikeCount,
		CreatedAt:       entity.CreatedAt,
	}
}
