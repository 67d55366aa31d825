package repo

import (
	"context"

	"gorm.io/gorm"

	"restora/models"
)

type StorageObjectRepository interface {
	Create(ctx context.Context, obj *models.StorageObject) error
	GetByID(ctx context.Context, ownerID, id string) (*models.StorageObject, error)
}

type objectRepo struct {
	db *gorm.DB
}

func NewStorageObjectRepository(db *gorm.DB) StorageObjectRepository {
	return &objectRepo{db: db}
}

func (r *objectRepo) Create(ctx context.Context, obj *models.StorageObject) error {
	return r.db.WithContext(ctx).Create(obj).Error
}

func (r *objectRepo) GetByID(ctx context.Context, ownerID, id string) (*models.StorageObject, error) {
	var obj models.StorageObject
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&obj).Error
	if err != nil {
		return nil, err
	}
	return &obj, nil
}
