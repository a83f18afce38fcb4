package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
	"github.com/noah-isme/learnsmart-api/pkg/jobs"
)

// TranscriptJobType tags transcript jobs on the shared queue.
const TranscriptJobType = "transcript"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, patch models.ExportJobPatch) (*models.ExportJob, error)
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// TranscriptServiceConfig governs queue recovery and cleanup.
type TranscriptServiceConfig struct {
	Enabled         bool
	CleanupInterval time.Duration
}

// TranscriptService orchestrates transcript export jobs.
type TranscriptService struct {
	repo      exportJobStore
	queue     jobDispatcher
	exporter  *ExportService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TranscriptServiceConfig
}

// TranscriptDownload aggregates resolved download data.
type TranscriptDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

func NewTranscriptService(repo exportJobStore, queue jobDispatcher, exporter *ExportService, validate *validator.Validate, logger *zap.Logger, cfg TranscriptServiceConfig) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TranscriptService{repo: repo, queue: queue, exporter: exporter, validator: validate, logger: logger, cfg: cfg}
}

// Enabled reports whether exports can be requested.
func (s *TranscriptService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.queue != nil && s.exporter != nil
}

// CreateJob persists a transcript job for userID and enqueues it.
func (s *TranscriptService) CreateJob(ctx context.Context, userID int64, req dto.TranscriptExportRequest) (*dto.ExportJobResponse, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrExportsDisabled, "")
	}
	req.Format = models.ExportFormat(strings.ToLower(string(req.Format)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	job := &models.ExportJob{
		UserID:    userID,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: TranscriptJobType}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_, _ = s.repo.Update(ctx, job.ID, models.ExportJobPatch{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to its owner or an admin.
func (s *TranscriptService) GetStatus(ctx context.Context, id string, actor Actor) (*dto.ExportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(job.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to view this export")
	}
	resp := &dto.ExportStatusResponse{
		ID:        job.ID,
		Format:    job.Format,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *TranscriptService) ResolveDownload(ctx context.Context, token string) (*TranscriptDownload, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrExportsDisabled, "")
	}
	signed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, signed.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.Open(signed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &TranscriptDownload{
		File:        file,
		Filename:    path.Base(signed.Path),
		ContentType: s.exporter.ContentType(job.Format),
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs (e.g. after process restart).
func (s *TranscriptService) RecoverPendingJobs(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: TranscriptJobType}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *TranscriptService) StartCleanup(ctx context.Context) {
	if !s.Enabled() || s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *TranscriptService) cleanupExpired() {
	removed, err := s.exporter.Cleanup()
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}

func (s *TranscriptService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// TranscriptWorker bridges queue jobs to ExportService.
type TranscriptWorker struct {
	repo     exportJobStore
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
}

func NewTranscriptWorker(repo exportJobStore, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger) *TranscriptWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Returned errors are retried by the queue;
// MarkFailed runs once retries are exhausted.
func (w *TranscriptWorker) Handle(ctx context.Context, job jobs.Job) error {
	processing := models.ExportStatusProcessing
	progress := 10
	record, err := w.repo.Update(ctx, job.ID, models.ExportJobPatch{
		Status:   &processing,
		Progress: &progress,
	})
	if err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		queued := models.ExportStatusQueued
		reset := 0
		msg := err.Error()
		if _, updateErr := w.repo.Update(ctx, job.ID, models.ExportJobPatch{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	relPath := result.RelativePath
	noError := ""
	if _, err := w.repo.Update(ctx, job.ID, models.ExportJobPatch{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		FilePath:     &relPath,
		ErrorMessage: &noError,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordExportJob(string(finished))
	return nil
}

// MarkFailed records the terminal failure of a job.
func (w *TranscriptWorker) MarkFailed(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ExportStatusFailed
	progress := 100
	now := time.Now().UTC()
	msg := cause.Error()
	if _, err := w.repo.Update(ctx, job.ID, models.ExportJobPatch{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	w.metrics.RecordExportJob(string(failed))
}
