package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/bimg"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"restora/internal/repo"
	"restora/internal/restore"
	"restora/internal/storage"
	"restora/models"
)

// LibraryService owns the photo/version/job lifecycle: uploads, enhancement
// runs against the external model, and the consistency rules between Photo,
// PhotoVersion, StorageObject and EnhancementJob rows.
type LibraryService struct {
	db      *gorm.DB
	store   storage.Store
	model   restore.Client
	logger  *zap.SugaredLogger
	signTTL time.Duration

	modelName    string
	modelVersion string
}

func NewLibraryService(db *gorm.DB, store storage.Store, model restore.Client, logger *zap.SugaredLogger, signTTL time.Duration, modelName, modelVersion string) *LibraryService {
	return &LibraryService{
		db:           db,
		store:        store,
		model:        model,
		logger:       logger,
		signTTL:      signTTL,
		modelName:    modelName,
		modelVersion: modelVersion,
	}
}

func checksumHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// probeSize reads image dimensions for the storage object record. A probe
// failure is not fatal; the object is stored without dimensions.
func (s *LibraryService) probeSize(data []byte) (int, int) {
	size, err := bimg.NewImage(data).Size()
	if err != nil {
		s.logger.Warnw("dimension probe failed", "error", err)
		return 0, 0
	}
	return size.Width, size.Height
}

func validateImage(data []byte, mimeType string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image", ErrInvalid)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: unsupported content type %q", ErrInvalid, mimeType)
	}
	return nil
}

// putObject writes bytes to the blob store and returns an unsaved
// StorageObject row describing them.
func (s *LibraryService) putObject(ctx context.Context, ownerID string, data []byte, mimeType string, original bool) (*models.StorageObject, error) {
	bucket, key, err := s.store.Put(ctx, ownerID, data, mimeType, original)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	width, height := s.probeSize(data)
	return &models.StorageObject{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Bucket:    bucket,
		ObjectKey: key,
		Checksum:  checksumHex(data),
		ByteSize:  int64(len(data)),
		MimeType:  mimeType,
		Width:     width,
		Height:    height,
	}, nil
}

// discardObject best-effort deletes a blob whose DB rows never landed.
func (s *LibraryService) discardObject(ctx context.Context, obj *models.StorageObject) {
	if err := s.store.Delete(ctx, obj.Bucket, obj.ObjectKey); err != nil {
		s.logger.Errorw("orphaned blob cleanup failed",
			"bucket", obj.Bucket, "key", obj.ObjectKey, "error", err)
	}
}

// Upload stores uploaded bytes and creates the Photo with its original
// version. The blob write happens first; the three rows land in one
// transaction, and the blob is deleted again if the transaction fails.
func (s *LibraryService) Upload(ctx context.Context, ownerID string, data []byte, mimeType, title string, folderID *string) (*PhotoView, error) {
	if err := validateImage(data, mimeType); err != nil {
		return nil, err
	}
	if folderID != nil {
		if _, err := repo.NewFolderRepository(s.db).GetByID(ctx, ownerID, *folderID); err != nil {
			return nil, dbErr(err)
		}
	}

	obj, err := s.putObject(ctx, ownerID, data, mimeType, true)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		FolderID: folderID,
		Title:    title,
	}
	version := &models.PhotoVersion{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		PhotoID:         photo.ID,
		StorageObjectID: obj.ID,
		IsOriginal:      true,
		Label:           "Original",
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.NewStorageObjectRepository(tx).Create(ctx, obj); err != nil {
			return err
		}
		if err := repo.NewPhotoRepository(tx).Create(ctx, photo); err != nil {
			return err
		}
		return repo.NewVersionRepository(tx).Create(ctx, version)
	})
	if err != nil {
		s.discardObject(ctx, obj)
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	s.logger.Infow("photo uploaded",
		"photo_id", photo.ID, "object_key", obj.ObjectKey, "bytes", obj.ByteSize)

	version.StorageObject = obj
	return s.photoView(ctx, photo, []models.PhotoVersion{*version})
}

// EnhanceParams carries the caller's choices for one enhancement run.
type EnhanceParams struct {
	VersionID    string // optional; default is the photo's original version
	Instructions string // optional free-text additions to the base prompt
}

// Enhance runs one restoration against the external model and records it as
// an EnhancementJob. The job row is the audit ledger of the run: it is
// created queued, marked running before the model call, and always reaches a
// terminal state before this method returns.
func (s *LibraryService) Enhance(ctx context.Context, ownerID, photoID string, p EnhanceParams) (*EnhanceResult, error) {
	photos := repo.NewPhotoRepository(s.db)
	versions := repo.NewVersionRepository(s.db)
	jobs := repo.NewJobRepository(s.db)

	if _, err := photos.GetActive(ctx, ownerID, photoID); err != nil {
		return nil, dbErr(err)
	}

	var input *models.PhotoVersion
	var err error
	if p.VersionID != "" {
		input, err = versions.GetActive(ctx, ownerID, p.VersionID)
		if err == nil && input.PhotoID != photoID {
			err = gorm.ErrRecordNotFound
		}
	} else {
		input, err = versions.GetOriginal(ctx, ownerID, photoID)
	}
	if err != nil {
		return nil, dbErr(err)
	}
	if input.StorageObject == nil {
		return nil, fmt.Errorf("version %s has no storage object", input.ID)
	}

	params, _ := json.Marshal(map[string]string{"instructions": p.Instructions})
	job := &models.EnhancementJob{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		PhotoID:        photoID,
		InputVersionID: input.ID,
		Status:         models.JobQueued,
		ModelName:      s.modelName,
		ModelVersion:   s.modelVersion,
		Parameters:     string(params),
		QueuedAt:       time.Now().UTC(),
	}
	if err := jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := jobs.MarkRunning(ctx, ownerID, job.ID); err != nil {
		return nil, fmt.Errorf("start job: %w", err)
	}

	inputBytes, err := s.store.Get(ctx, input.StorageObject.Bucket, input.StorageObject.ObjectKey)
	if err != nil {
		return nil, s.failJob(ctx, ownerID, job.ID, fmt.Errorf("fetch input: %w", err))
	}

	result, err := s.model.Restore(ctx, inputBytes, input.StorageObject.MimeType, p.Instructions)
	if err != nil {
		return nil, s.failJob(ctx, ownerID, job.ID, fmt.Errorf("model call: %w", err))
	}
	if !result.HasImage() {
		reason := result.Text
		if reason == "" {
			reason = "model returned no image"
		}
		_ = s.failJob(ctx, ownerID, job.ID, fmt.Errorf("%s", reason))
		return nil, fmt.Errorf("%w: %s", ErrModelRefusal, reason)
	}

	count, err := versions.CountEnhanced(ctx, ownerID, photoID)
	if err != nil {
		return nil, s.failJob(ctx, ownerID, job.ID, err)
	}

	obj, err := s.putObject(ctx, ownerID, result.Data, result.MimeType, false)
	if err != nil {
		return nil, s.failJob(ctx, ownerID, job.ID, err)
	}

	output := &models.PhotoVersion{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		PhotoID:         photoID,
		StorageObjectID: obj.ID,
		IsOriginal:      false,
		ParentVersionID: &input.ID,
		Label:           fmt.Sprintf("Enhanced v%d", count+1),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.NewStorageObjectRepository(tx).Create(ctx, obj); err != nil {
			return err
		}
		if err := repo.NewVersionRepository(tx).Create(ctx, output); err != nil {
			return err
		}
		return repo.NewJobRepository(tx).MarkSucceeded(ctx, ownerID, job.ID, output.ID)
	})
	if err != nil {
		s.discardObject(ctx, obj)
		return nil, s.failJob(ctx, ownerID, job.ID, fmt.Errorf("persist result: %w", err))
	}

	s.logger.Infow("enhancement succeeded",
		"photo_id", photoID, "job_id", job.ID, "output_version_id", output.ID, "label", output.Label)

	url, err := s.store.SignedURL(ctx, obj.Bucket, obj.ObjectKey, s.signTTL)
	if err != nil {
		s.logger.Errorw("sign output url", "key", obj.ObjectKey, "error", err)
	}
	output.StorageObject = obj
	return &EnhanceResult{
		JobID:   job.ID,
		Version: versionView(*output, url),
	}, nil
}

// failJob marks the job failed with the error text, best-effort, and hands
// the original error back for the caller's response.
func (s *LibraryService) failJob(ctx context.Context, ownerID, jobID string, cause error) error {
	if err := repo.NewJobRepository(s.db).MarkFailed(ctx, ownerID, jobID, cause.Error()); err != nil {
		s.logger.Errorw("mark job failed", "job_id", jobID, "error", err)
	}
	return cause
}

// EnhanceStateless runs the model without touching the library: no photo,
// no version, no job row. Used by the try-it-out endpoint.
func (s *LibraryService) EnhanceStateless(ctx context.Context, data []byte, mimeType, instructions string) (*restore.Result, error) {
	if err := validateImage(data, mimeType); err != nil {
		return nil, err
	}
	result, err := s.model.Restore(ctx, data, mimeType, instructions)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}
	if !result.HasImage() {
		reason := result.Text
		if reason == "" {
			reason = "model returned no image"
		}
		return nil, fmt.Errorf("%w: %s", ErrModelRefusal, reason)
	}
	return result, nil
}

// SaveToLibraryParams carries both byte payloads of a client-side
// enhancement being persisted after the fact.
type SaveToLibraryParams struct {
	Original     []byte
	OriginalMime string
	Enhanced     []byte
	EnhancedMime string
	Title        string
	Instructions string
}

// SaveToLibrary persists an original/enhanced pair produced without a server
// job, plus a synthetic already-succeeded EnhancementJob so the audit trail
// matches the regular enhance path.
func (s *LibraryService) SaveToLibrary(ctx context.Context, ownerID string, p SaveToLibraryParams) (*PhotoView, error) {
	if err := validateImage(p.Original, p.OriginalMime); err != nil {
		return nil, err
	}
	if err := validateImage(p.Enhanced, p.EnhancedMime); err != nil {
		return nil, err
	}

	origObj, err := s.putObject(ctx, ownerID, p.Original, p.OriginalMime, true)
	if err != nil {
		return nil, err
	}
	enhObj, err := s.putObject(ctx, ownerID, p.Enhanced, p.EnhancedMime, false)
	if err != nil {
		s.discardObject(ctx, origObj)
		return nil, err
	}

	now := time.Now().UTC()
	photo := &models.Photo{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   p.Title,
	}
	origVersion := &models.PhotoVersion{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		PhotoID:         photo.ID,
		StorageObjectID: origObj.ID,
		IsOriginal:      true,
		Label:           "Original",
	}
	enhVersion := &models.PhotoVersion{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		PhotoID:         photo.ID,
		StorageObjectID: enhObj.ID,
		IsOriginal:      false,
		ParentVersionID: &origVersion.ID,
		Label:           "Enhanced v1",
	}
	params, _ := json.Marshal(map[string]string{"instructions": p.Instructions, "source": "client"})
	job := &models.EnhancementJob{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		PhotoID:         photo.ID,
		InputVersionID:  origVersion.ID,
		OutputVersionID: &enhVersion.ID,
		Status:          models.JobSucceeded,
		ModelName:       s.modelName,
		ModelVersion:    s.modelVersion,
		Parameters:      string(params),
		QueuedAt:        now,
		StartedAt:       &now,
		FinishedAt:      &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		objects := repo.NewStorageObjectRepository(tx)
		if err := objects.Create(ctx, origObj); err != nil {
			return err
		}
		if err := objects.Create(ctx, enhObj); err != nil {
			return err
		}
		if err := repo.NewPhotoRepository(tx).Create(ctx, photo); err != nil {
			return err
		}
		vs := repo.NewVersionRepository(tx)
		if err := vs.Create(ctx, origVersion); err != nil {
			return err
		}
		if err := vs.Create(ctx, enhVersion); err != nil {
			return err
		}
		return repo.NewJobRepository(tx).Create(ctx, job)
	})
	if err != nil {
		s.discardObject(ctx, origObj)
		s.discardObject(ctx, enhObj)
		return nil, fmt.Errorf("persist save-to-library: %w", err)
	}

	s.logger.Infow("saved to library", "photo_id", photo.ID, "job_id", job.ID)

	origVersion.StorageObject = origObj
	enhVersion.StorageObject = enhObj
	return s.photoView(ctx, photo, []models.PhotoVersion{*origVersion, *enhVersion})
}

// PhotoUpdate lists the metadata fields a PATCH may change. Nil means
// "leave unchanged"; ClearFolder moves the photo back to the root.
type PhotoUpdate struct {
	Title        *string
	Description  *string
	Favorite     *bool
	Rating       *int
	FolderID     *string
	ClearFolder  bool
	CapturedDate *time.Time
	AssignedDate *time.Time
}

func (s *LibraryService) UpdatePhoto(ctx context.Context, ownerID, photoID string, u PhotoUpdate) (*PhotoView, error) {
	fields := map[string]any{}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Favorite != nil {
		fields["favorite"] = *u.Favorite
	}
	if u.Rating != nil {
		if *u.Rating < 0 || *u.Rating > 5 {
			return nil, fmt.Errorf("%w: rating must be 0..5", ErrInvalid)
		}
		fields["rating"] = *u.Rating
	}
	if u.CapturedDate != nil {
		fields["captured_date"] = *u.CapturedDate
	}
	if u.AssignedDate != nil {
		fields["assigned_date"] = *u.AssignedDate
	}
	switch {
	case u.ClearFolder:
		fields["folder_id"] = nil
	case u.FolderID != nil:
		if _, err := repo.NewFolderRepository(s.db).GetByID(ctx, ownerID, *u.FolderID); err != nil {
			return nil, dbErr(err)
		}
		fields["folder_id"] = *u.FolderID
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalid)
	}

	photos := repo.NewPhotoRepository(s.db)
	if err := photos.Update(ctx, ownerID, photoID, fields); err != nil {
		return nil, dbErr(err)
	}
	return s.GetPhoto(ctx, ownerID, photoID)
}

// DeletePhoto soft-deletes; the row and its versions stay retrievable by id.
func (s *LibraryService) DeletePhoto(ctx context.Context, ownerID, photoID string) error {
	if err := repo.NewPhotoRepository(s.db).SoftDelete(ctx, ownerID, photoID); err != nil {
		return dbErr(err)
	}
	return nil
}
