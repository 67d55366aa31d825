package repo

import (
	"context"

	"gorm.io/gorm"

	"restora/models"
)

type VersionRepository interface {
	Create(ctx context.Context, version *models.PhotoVersion) error

	// GetByID returns the version regardless of soft-delete state, for
	// audit reads such as job annotation.
	GetByID(ctx context.Context, ownerID, id string) (*models.PhotoVersion, error)

	// GetActive is GetByID restricted to non-deleted versions.
	GetActive(ctx context.Context, ownerID, id string) (*models.PhotoVersion, error)

	// ListByPhoto returns non-deleted versions of a photo, oldest first,
	// with the storage object preloaded.
	ListByPhoto(ctx context.Context, ownerID, photoID string) ([]models.PhotoVersion, error)

	// GetOriginal returns the version flagged isOriginal for a photo.
	GetOriginal(ctx context.Context, ownerID, photoID string) (*models.PhotoVersion, error)

	// CountEnhanced counts non-original, non-deleted versions of a photo.
	// Drives the "Enhanced vN" labelling.
	CountEnhanced(ctx context.Context, ownerID, photoID string) (int64, error)
}

type versionRepo struct {
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepo{db: db}
}

func (r *versionRepo) Create(ctx context.Context, version *models.PhotoVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *versionRepo) GetByID(ctx context.Context, ownerID, id string) (*models.PhotoVersion, error) {
	var v models.PhotoVersion
	err := r.db.WithContext(ctx).
		Preload("StorageObject").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) GetActive(ctx context.Context, ownerID, id string) (*models.PhotoVersion, error) {
	var v models.PhotoVersion
	err := r.db.WithContext(ctx).
		Preload("StorageObject").
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) ListByPhoto(ctx context.Context, ownerID, photoID string) ([]models.PhotoVersion, error) {
	var versions []models.PhotoVersion
	err := r.db.WithContext(ctx).
		Preload("StorageObject").
		Where("photo_id = ? AND owner_id = ? AND deleted_at IS NULL", photoID, ownerID).
		Order("created_at ASC").
		Find(&versions).Error
	return versions, err
}

func (r *versionRepo) GetOriginal(ctx context.Context, ownerID, photoID string) (*models.PhotoVersion, error) {
	var v models.PhotoVersion
	err := r.db.WithContext(ctx).
		Preload("StorageObject").
		Where("photo_id = ? AND owner_id = ? AND is_original = ? AND deleted_at IS NULL", photoID, ownerID, true).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) CountEnhanced(ctx context.Context, ownerID, photoID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PhotoVersion{}).
		Where("photo_id = ? AND owner_id = ? AND is_original = ? AND deleted_at IS NULL", photoID, ownerID, false).
		Count(&n).Error
	return n, err
}
