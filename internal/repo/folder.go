package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"restora/models"
)

type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, ownerID, id string) (*models.Folder, error)

	// ListByOwner returns all non-deleted folders, ordered by sort_order
	// then name so sibling order is stable for tree building.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error)

	Update(ctx context.Context, ownerID, id string, fields map[string]any) error
	SoftDelete(ctx context.Context, ownerID, id string) error
}

type folderRepo struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepo{db: db}
}

func (r *folderRepo) Create(ctx context.Context, folder *models.Folder) error {
	return r.db.WithContext(ctx).Create(folder).Error
}

func (r *folderRepo) GetByID(ctx context.Context, ownerID, id string) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *folderRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Order("sort_order ASC, name ASC").
		Find(&folders).Error
	return folders, err
}

func (r *folderRepo) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Folder{}).
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

func (r *folderRepo) SoftDelete(ctx context.Context, ownerID, id string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Folder{}).
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
