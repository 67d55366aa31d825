package service

import (
	"context"
	"fmt"
	"time"

	"restora/internal/repo"
	"restora/models"
)

// VersionView is a version annotated with a freshly signed URL. URLs are
// minted per request and never persisted.
type VersionView struct {
	ID              string     `json:"id"`
	PhotoID         string     `json:"photo_id"`
	IsOriginal      bool       `json:"is_original"`
	ParentVersionID *string    `json:"parent_version_id,omitempty"`
	Label           string     `json:"label"`
	Notes           string     `json:"notes,omitempty"`
	MimeType        string     `json:"mime_type,omitempty"`
	Width           int        `json:"width,omitempty"`
	Height          int        `json:"height,omitempty"`
	ByteSize        int64      `json:"byte_size,omitempty"`
	Checksum        string     `json:"checksum,omitempty"`
	URL             string     `json:"url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

type PhotoView struct {
	ID           string        `json:"id"`
	FolderID     *string       `json:"folder_id,omitempty"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Favorite     bool          `json:"favorite"`
	Rating       int           `json:"rating"`
	CapturedDate *time.Time    `json:"captured_date,omitempty"`
	AssignedDate *time.Time    `json:"assigned_date,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
	Versions     []VersionView `json:"versions"`
}

type JobView struct {
	ID              string       `json:"id"`
	PhotoID         string       `json:"photo_id"`
	Status          string       `json:"status"`
	ModelName       string       `json:"model_name"`
	ModelVersion    string       `json:"model_version"`
	Parameters      string       `json:"parameters,omitempty"`
	ErrorMessage    *string      `json:"error_message,omitempty"`
	QueuedAt        time.Time    `json:"queued_at"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	FinishedAt      *time.Time   `json:"finished_at,omitempty"`
	InputVersion    *VersionView `json:"input_version,omitempty"`
	OutputVersion   *VersionView `json:"output_version,omitempty"`
	InputVersionID  string       `json:"input_version_id"`
	OutputVersionID *string      `json:"output_version_id,omitempty"`
}

type EnhanceResult struct {
	JobID   string      `json:"job_id"`
	Version VersionView `json:"version"`
}

func versionView(v models.PhotoVersion, url string) VersionView {
	view := VersionView{
		ID:              v.ID,
		PhotoID:         v.PhotoID,
		IsOriginal:      v.IsOriginal,
		ParentVersionID: v.ParentVersionID,
		Label:           v.Label,
		Notes:           v.Notes,
		URL:             url,
		CreatedAt:       v.CreatedAt,
		DeletedAt:       v.DeletedAt,
	}
	if v.StorageObject != nil {
		view.MimeType = v.StorageObject.MimeType
		view.Width = v.StorageObject.Width
		view.Height = v.StorageObject.Height
		view.ByteSize = v.StorageObject.ByteSize
		view.Checksum = v.StorageObject.Checksum
	}
	return view
}

// signVersion issues a signed URL for a version's object. A signing failure
// degrades the view rather than failing the whole listing.
func (s *LibraryService) signVersion(ctx context.Context, v models.PhotoVersion) VersionView {
	url := ""
	if v.StorageObject != nil {
		signed, err := s.store.SignedURL(ctx, v.StorageObject.Bucket, v.StorageObject.ObjectKey, s.signTTL)
		if err != nil {
			s.logger.Errorw("sign url", "key", v.StorageObject.ObjectKey, "error", err)
		} else {
			url = signed
		}
	}
	return versionView(v, url)
}

func (s *LibraryService) photoView(ctx context.Context, photo *models.Photo, versions []models.PhotoVersion) (*PhotoView, error) {
	views := make([]VersionView, 0, len(versions))
	for _, v := range versions {
		views = append(views, s.signVersion(ctx, v))
	}
	return &PhotoView{
		ID:           photo.ID,
		FolderID:     photo.FolderID,
		Title:        photo.Title,
		Description:  photo.Description,
		Favorite:     photo.Favorite,
		Rating:       photo.Rating,
		CapturedDate: photo.CapturedDate,
		AssignedDate: photo.AssignedDate,
		CreatedAt:    photo.CreatedAt,
		UpdatedAt:    photo.UpdatedAt,
		DeletedAt:    photo.DeletedAt,
		Versions:     views,
	}, nil
}

// GetPhoto returns a photo by direct id lookup. Soft-deleted photos are
// still returned, with deleted_at set, so callers can audit them.
func (s *LibraryService) GetPhoto(ctx context.Context, ownerID, photoID string) (*PhotoView, error) {
	photo, err := repo.NewPhotoRepository(s.db).GetByID(ctx, ownerID, photoID)
	if err != nil {
		return nil, dbErr(err)
	}
	versions, err := repo.NewVersionRepository(s.db).ListByPhoto(ctx, ownerID, photoID)
	if err != nil {
		return nil, err
	}
	return s.photoView(ctx, photo, versions)
}

// ListPhotosParams mirrors the query string of GET /api/photos.
type ListPhotosParams struct {
	FolderID      *string // nil = no folder filter
	RootOnly      bool    // folder=root: photos outside any folder
	FavoritesOnly bool
	Limit         int
	Offset        int
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (s *LibraryService) ListPhotos(ctx context.Context, ownerID string, p ListPhotosParams) ([]PhotoView, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := repo.PhotoFilter{
		FavoritesOnly: p.FavoritesOnly,
		Limit:         limit,
		Offset:        p.Offset,
	}
	if p.RootOnly {
		filter.HasFolder = true
	} else if p.FolderID != nil {
		filter.HasFolder = true
		filter.FolderID = p.FolderID
	}

	photos, err := repo.NewPhotoRepository(s.db).List(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	versions := repo.NewVersionRepository(s.db)
	views := make([]PhotoView, 0, len(photos))
	for i := range photos {
		vs, err := versions.ListByPhoto(ctx, ownerID, photos[i].ID)
		if err != nil {
			return nil, err
		}
		view, err := s.photoView(ctx, &photos[i], vs)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// ListJobsParams mirrors the query string of GET /api/jobs.
type ListJobsParams struct {
	Status string
	Limit  int
	Offset int
}

func (s *LibraryService) ListJobs(ctx context.Context, ownerID string, p ListJobsParams) ([]JobView, error) {
	if p.Status != "" {
		switch p.Status {
		case models.JobQueued, models.JobRunning, models.JobSucceeded, models.JobFailed:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, p.Status)
		}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	jobs, err := repo.NewJobRepository(s.db).List(ctx, ownerID, repo.JobFilter{
		Status: p.Status,
		Limit:  limit,
		Offset: p.Offset,
	})
	if err != nil {
		return nil, err
	}

	versions := repo.NewVersionRepository(s.db)
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		view := JobView{
			ID:              job.ID,
			PhotoID:         job.PhotoID,
			Status:          job.Status,
			ModelName:       job.ModelName,
			ModelVersion:    job.ModelVersion,
			Parameters:      job.Parameters,
			ErrorMessage:    job.ErrorMessage,
			QueuedAt:        job.QueuedAt,
			StartedAt:       job.StartedAt,
			FinishedAt:      job.FinishedAt,
			InputVersionID:  job.InputVersionID,
			OutputVersionID: job.OutputVersionID,
		}
		if in, err := versions.GetByID(ctx, ownerID, job.InputVersionID); err == nil {
			v := s.signVersion(ctx, *in)
			view.InputVersion = &v
		}
		if job.OutputVersionID != nil {
			if out, err := versions.GetByID(ctx, ownerID, *job.OutputVersionID); err == nil {
				v := s.signVersion(ctx, *out)
				view.OutputVersion = &v
			}
		}
		views = append(views, view)
	}
	return views, nil
}
