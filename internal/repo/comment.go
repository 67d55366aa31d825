package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"restora/models"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPhoto(ctx context.Context, ownerID, photoID string) ([]models.Comment, error)
	SoftDelete(ctx context.Context, ownerID, id string) error
}

type commentRepo struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) ListByPhoto(ctx context.Context, ownerID, photoID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("photo_id = ? AND owner_id = ? AND deleted_at IS NULL", photoID, ownerID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) SoftDelete(ctx context.Context, ownerID, id string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		Update("deleted_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
