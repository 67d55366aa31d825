package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"restora/models"
)

// ErrIllegalTransition is returned when a job status update would leave a
// terminal state or skip a step of queued -> running -> succeeded | failed.
var ErrIllegalTransition = errors.New("illegal job status transition")

type JobFilter struct {
	Status string // empty = all
	Limit  int
	Offset int
}

type JobRepository interface {
	Create(ctx context.Context, job *models.EnhancementJob) error
	GetByID(ctx context.Context, ownerID, id string) (*models.EnhancementJob, error)
	List(ctx context.Context, ownerID string, f JobFilter) ([]models.EnhancementJob, error)

	// MarkRunning moves a queued job to running.
	MarkRunning(ctx context.Context, ownerID, id string) error

	// MarkSucceeded moves a running job to succeeded with its output version.
	MarkSucceeded(ctx context.Context, ownerID, id, outputVersionID string) error

	// MarkFailed moves a running job to failed with an error message.
	MarkFailed(ctx context.Context, ownerID, id, errorMessage string) error
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *models.EnhancementJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepo) GetByID(ctx context.Context, ownerID, id string) (*models.EnhancementJob, error) {
	var job models.EnhancementJob
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, ownerID string, f JobFilter) ([]models.EnhancementJob, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var jobs []models.EnhancementJob
	err := q.Order("queued_at DESC").Find(&jobs).Error
	return jobs, err
}

func (r *jobRepo) MarkRunning(ctx context.Context, ownerID, id string) error {
	now := time.Now().UTC()
	return r.transition(ctx, ownerID, id, models.JobQueued, map[string]any{
		"status":     models.JobRunning,
		"started_at": now,
	})
}

func (r *jobRepo) MarkSucceeded(ctx context.Context, ownerID, id, outputVersionID string) error {
	now := time.Now().UTC()
	return r.transition(ctx, ownerID, id, models.JobRunning, map[string]any{
		"status":            models.JobSucceeded,
		"output_version_id": outputVersionID,
		"finished_at":       now,
	})
}

func (r *jobRepo) MarkFailed(ctx context.Context, ownerID, id, errorMessage string) error {
	now := time.Now().UTC()
	return r.transition(ctx, ownerID, id, models.JobRunning, map[string]any{
		"status":        models.JobFailed,
		"error_message": errorMessage,
		"finished_at":   now,
	})
}

// transition applies updates only when the job is owned by ownerID and
// currently in the expected state. The condition in the WHERE clause is what
// enforces the state machine: a terminal job never matches.
func (r *jobRepo) transition(ctx context.Context, ownerID, id, from string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.EnhancementJob{}).
		Where("id = ? AND owner_id = ? AND status = ?", id, ownerID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the job does not exist for this owner or it already left
		// the expected state.
		var job models.EnhancementJob
		err := r.db.WithContext(ctx).
			Where("id = ? AND owner_id = ?", id, ownerID).
			First(&job).Error
		if err != nil {
			return gorm.ErrRecordNotFound
		}
		return ErrIllegalTransition
	}
	return nil
}
