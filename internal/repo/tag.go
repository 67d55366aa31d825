package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"restora/models"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, ownerID, id string) (*models.Tag, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tag, error)

	// Attach links a tag to a photo; attaching twice is a no-op.
	Attach(ctx context.Context, pt *models.PhotoTag) error
	Detach(ctx context.Context, ownerID, photoID, tagID string) error
	ListByPhoto(ctx context.Context, ownerID, photoID string) ([]models.Tag, error)
}

type tagRepo struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *tagRepo) GetByID(ctx context.Context, ownerID, id string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

func (r *tagRepo) Attach(ctx context.Context, pt *models.PhotoTag) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "photo_id"}, {Name: "tag_id"}},
		DoNothing: true,
	}).Create(pt).Error
}

func (r *tagRepo) Detach(ctx context.Context, ownerID, photoID, tagID string) error {
	res := r.db.WithContext(ctx).
		Where("photo_id = ? AND tag_id = ? AND owner_id = ?", photoID, tagID, ownerID).
		Delete(&models.PhotoTag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *tagRepo) ListByPhoto(ctx context.Context, ownerID, photoID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN photo_tags ON photo_tags.tag_id = tags.id").
		Where("photo_tags.photo_id = ? AND tags.owner_id = ?", photoID, ownerID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}
