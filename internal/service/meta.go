package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"restora/internal/repo"
	"restora/models"
)

// MetaService covers the auxiliary organization metadata: tags and comments.
type MetaService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewMetaService(db *gorm.DB, logger *zap.SugaredLogger) *MetaService {
	return &MetaService{db: db, logger: logger}
}

func (s *MetaService) CreateTag(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name required", ErrInvalid)
	}
	tag := &models.Tag{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Name:    name,
	}
	if err := repo.NewTagRepository(s.db).Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *MetaService) ListTags(ctx context.Context, ownerID string) ([]models.Tag, error) {
	return repo.NewTagRepository(s.db).ListByOwner(ctx, ownerID)
}

// TagPhoto attaches a tag to a photo. Both must belong to the owner; a
// repeat attach is a no-op.
func (s *MetaService) TagPhoto(ctx context.Context, ownerID, photoID, tagID string) error {
	if _, err := repo.NewPhotoRepository(s.db).GetActive(ctx, ownerID, photoID); err != nil {
		return dbErr(err)
	}
	tags := repo.NewTagRepository(s.db)
	if _, err := tags.GetByID(ctx, ownerID, tagID); err != nil {
		return dbErr(err)
	}
	err := tags.Attach(ctx, &models.PhotoTag{
		PhotoID: photoID,
		TagID:   tagID,
		OwnerID: ownerID,
	})
	if err != nil {
		return err
	}
	s.logger.Infow("tag attached", "photo_id", photoID, "tag_id", tagID)
	return nil
}

func (s *MetaService) UntagPhoto(ctx context.Context, ownerID, photoID, tagID string) error {
	if err := repo.NewTagRepository(s.db).Detach(ctx, ownerID, photoID, tagID); err != nil {
		return dbErr(err)
	}
	return nil
}

func (s *MetaService) PhotoTags(ctx context.Context, ownerID, photoID string) ([]models.Tag, error) {
	if _, err := repo.NewPhotoRepository(s.db).GetActive(ctx, ownerID, photoID); err != nil {
		return nil, dbErr(err)
	}
	return repo.NewTagRepository(s.db).ListByPhoto(ctx, ownerID, photoID)
}

// AddComment creates a comment on a photo, optionally pinned to one version.
func (s *MetaService) AddComment(ctx context.Context, ownerID, photoID string, versionID *string, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body required", ErrInvalid)
	}
	if _, err := repo.NewPhotoRepository(s.db).GetActive(ctx, ownerID, photoID); err != nil {
		return nil, dbErr(err)
	}
	if versionID != nil {
		v, err := repo.NewVersionRepository(s.db).GetByID(ctx, ownerID, *versionID)
		if err != nil {
			return nil, dbErr(err)
		}
		if v.PhotoID != photoID {
			return nil, ErrNotFound
		}
	}
	comment := &models.Comment{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		PhotoID:   photoID,
		VersionID: versionID,
		Body:      body,
	}
	if err := repo.NewCommentRepository(s.db).Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *MetaService) ListComments(ctx context.Context, ownerID, photoID string) ([]models.Comment, error) {
	if _, err := repo.NewPhotoRepository(s.db).GetActive(ctx, ownerID, photoID); err != nil {
		return nil, dbErr(err)
	}
	return repo.NewCommentRepository(s.db).ListByPhoto(ctx, ownerID, photoID)
}

func (s *MetaService) DeleteComment(ctx context.Context, ownerID, commentID string) error {
	if err := repo.NewCommentRepository(s.db).SoftDelete(ctx, ownerID, commentID); err != nil {
		return dbErr(err)
	}
	s.logger.Infow("comment deleted", "comment_id", commentID)
	return nil
}
