package repo

import (
	"context"

	"gorm.io/gorm"

	"restora/models"
)

type ProfileRepository interface {
	// UpsertByEmail finds the profile for an email or creates it, returning
	// the stored row either way.
	UpsertByEmail(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) UpsertByEmail(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	var existing models.Profile
	err := r.db.WithContext(ctx).Where("email = ?", profile.Email).First(&existing).Error
	if err == nil {
		fields := map[string]any{
			"display_name": profile.DisplayName,
			"avatar_url":   profile.AvatarURL,
			"provider":     profile.Provider,
		}
		if err := r.db.WithContext(ctx).Model(&existing).Updates(fields).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
