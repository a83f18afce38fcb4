package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

type memoryEnrollmentStore struct {
	db *memoryDB
}

func (s *memoryEnrollmentStore) Find(_ context.Context, userID, courseID int64) (*models.Enrollment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if e, ok := s.findLocked(userID, courseID); ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memoryEnrollmentStore) findLocked(userID, courseID int64) (models.Enrollment, bool) {
	for _, e := range s.db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e, true
		}
	}
	return models.Enrollment{}, false
}

func (s *memoryEnrollmentStore) ListByUser(_ context.Context, userID int64) ([]models.Enrollment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedValues(s.db.enrollments, func(e models.Enrollment) bool { return e.UserID == userID }), nil
}

func (s *memoryEnrollmentStore) CreateIfAbsent(_ context.Context, e *models.Enrollment) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if existing, ok := s.findLocked(e.UserID, e.CourseID); ok {
		*e = existing
		return false, nil
	}
	e.ID = s.db.nextID("enrollments")
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	s.db.enrollments[e.ID] = *e
	return true, nil
}

func (s *memoryEnrollmentStore) SetProgress(_ context.Context, id int64, progress int) error {
	return s.mutate(id, func(e *models.Enrollment) bool {
		e.Progress = progress
		return true
	})
}

func (s *memoryEnrollmentStore) MarkCompleted(_ context.Context, id int64, at time.Time) (bool, error) {
	transitioned := false
	err := s.mutate(id, func(e *models.Enrollment) bool {
		if e.Completed {
			return false
		}
		e.Completed = true
		e.CompletedAt = &at
		transitioned = true
		return true
	})
	return transitioned, err
}

func (s *memoryEnrollmentStore) MarkCertificateIssued(_ context.Context, id int64) error {
	return s.mutate(id, func(e *models.Enrollment) bool {
		e.CertificateIssued = true
		return true
	})
}

func (s *memoryEnrollmentStore) mutate(id int64, fn func(*models.Enrollment) bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	if fn(&e) {
		s.db.enrollments[id] = e
	}
	return nil
}

type memoryProgressStore struct {
	db *memoryDB
}

func (s *memoryProgressStore) Find(_ context.Context, userID, lessonID int64) (*models.Progress, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if p, ok := s.findLocked(userID, lessonID); ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memoryProgressStore) findLocked(userID, lessonID int64) (models.Progress, bool) {
	for _, p := range s.db.progress {
		if p.UserID == userID && p.LessonID == lessonID {
			return p, true
		}
	}
	return models.Progress{}, false
}

func (s *memoryProgressStore) ListCompletedByUser(_ context.Context, userID int64) ([]models.Progress, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedValues(s.db.progress, func(p models.Progress) bool { return p.UserID == userID && p.Completed }), nil
}

func (s *memoryProgressStore) Complete(_ context.Context, userID, lessonID int64, at time.Time) (CompletionResult, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.findLocked(userID, lessonID)
	result := CompletionResult{Created: !ok}
	if !ok {
		p = models.Progress{ID: s.db.nextID("progress"), UserID: userID, LessonID: lessonID}
	}
	if !p.Completed {
		p.Completed = true
		p.CompletedAt = &at
		result.Transitioned = true
	}
	s.db.progress[p.ID] = p
	result.Progress = p
	return result, nil
}
