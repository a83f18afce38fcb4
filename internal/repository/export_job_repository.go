package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

const exportJobColumns = `id, user_id, format, status, progress, result_url, file_path, error_message, created_at, finished_at`

// ExportJobRepository persists transcript export job metadata.
type ExportJobRepository struct {
	db *sqlx.DB
}

func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_jobs (` + exportJobColumns + `)
VALUES (:id, :user_id, :format, :status, :progress, :result_url, :file_path, :error_message, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, `SELECT `+exportJobColumns+` FROM export_jobs WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return &job, nil
}

func (r *ExportJobRepository) Update(ctx context.Context, id string, patch models.ExportJobPatch) (*models.ExportJob, error) {
	set := &setClause{}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}
	if patch.Progress != nil {
		set.add("progress", *patch.Progress)
	}
	if patch.ResultURL != nil {
		set.add("result_url", *patch.ResultURL)
	}
	if patch.FilePath != nil {
		set.add("file_path", *patch.FilePath)
	}
	if patch.ErrorMessage != nil {
		set.add("error_message", *patch.ErrorMessage)
	}
	if patch.FinishedAt != nil {
		set.add("finished_at", *patch.FinishedAt)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}
	query, args := set.build("export_jobs", exportJobColumns, id)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update export job: %w", err)
	}
	return &job, nil
}

// ListQueued fetches queued jobs for cold start recovery.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued export jobs: %w", err)
	}
	return jobs, nil
}
