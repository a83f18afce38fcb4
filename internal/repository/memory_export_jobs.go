package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

type memoryExportJobStore struct {
	db *memoryDB
}

func (s *memoryExportJobStore) Create(_ context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, exists := s.db.exportJobs[job.ID]; exists {
		return ErrDuplicate
	}
	s.db.exportJobs[job.ID] = *job
	return nil
}

func (s *memoryExportJobStore) FindByID(_ context.Context, id string) (*models.ExportJob, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	job, ok := s.db.exportJobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

func (s *memoryExportJobStore) Update(_ context.Context, id string, patch models.ExportJobPatch) (*models.ExportJob, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	job, ok := s.db.exportJobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	patch.Apply(&job)
	s.db.exportJobs[id] = job
	return &job, nil
}

func (s *memoryExportJobStore) ListQueued(_ context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	s.db.mu.RLock()
	queued := make([]models.ExportJob, 0)
	for _, job := range s.db.exportJobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, job)
		}
	}
	s.db.mu.RUnlock()
	sort.Slice(queued, func(i, j int) bool { return queued[i].CreatedAt.Before(queued[j].CreatedAt) })
	if len(queued) > limit {
		queued = queued[:limit]
	}
	return queued, nil
}
