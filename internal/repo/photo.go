package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"restora/models"
)

// PhotoFilter narrows a photo listing. FolderID distinguishes "no filter"
// (HasFolder=false) from "root only" (HasFolder=true, FolderID=nil).
type PhotoFilter struct {
	HasFolder     bool
	FolderID      *string
	FavoritesOnly bool
	Limit         int
	Offset        int
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error

	// GetByID returns the photo regardless of soft-delete state so callers
	// can inspect DeletedAt. Cross-owner lookups fail with
	// gorm.ErrRecordNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*models.Photo, error)

	// GetActive is GetByID restricted to non-deleted photos.
	GetActive(ctx context.Context, ownerID, id string) (*models.Photo, error)

	List(ctx context.Context, ownerID string, f PhotoFilter) ([]models.Photo, error)
	Update(ctx context.Context, ownerID, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, ownerID, id string) error
}

type photoRepo struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepo{db: db}
}

func (r *photoRepo) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *photoRepo) GetByID(ctx context.Context, ownerID, id string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepo) GetActive(ctx context.Context, ownerID, id string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepo) List(ctx context.Context, ownerID string, f PhotoFilter) ([]models.Photo, error) {
	q := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID)

	if f.HasFolder {
		if f.FolderID == nil {
			q = q.Where("folder_id IS NULL")
		} else {
			q = q.Where("folder_id = ?", *f.FolderID)
		}
	}
	if f.FavoritesOnly {
		q = q.Where("favorite = ?", true)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var photos []models.Photo
	err := q.Order("created_at DESC").Find(&photos).Error
	return photos, err
}

func (r *photoRepo) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *photoRepo) SoftDelete(ctx context.Context, ownerID, id string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Photo{}).
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
