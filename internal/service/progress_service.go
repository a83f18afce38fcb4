package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

// ProgressConfig sets the reaction to a failed cascade.
type ProgressConfig struct {
	// CascadeStrict fails the request when the cascade errors. Otherwise the
	// failure is logged and the lesson completion still succeeds.
	CascadeStrict bool
}

// LessonCompletion is the outcome of ProgressService.CompleteLesson.
type LessonCompletion struct {
	Progress models.Progress
	// Created is true when this call wrote the first record for the lesson.
	Created bool
	Cascade *CascadeResult
}

// ProgressService records lesson completions and triggers the cascade.
type ProgressService struct {
	lessons   repository.LessonStore
	progress  repository.ProgressStore
	users     repository.UserStore
	cascade   *ProgressCascade
	locks     *keyedMutex
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ProgressConfig
}

func NewProgressService(store *repository.Store, cascade *ProgressCascade, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ProgressConfig) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cascade == nil {
		cascade = NewProgressCascade(store, logger)
	}
	return &ProgressService{
		lessons:   store.Lessons,
		progress:  store.Progress,
		users:     store.Users,
		cascade:   cascade,
		locks:     newKeyedMutex(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CompleteLesson marks the lesson completed for userID. Lesson points are
// awarded only on the first completion; the cascade runs every time.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID int64, req dto.CompleteLessonRequest) (*LessonCompletion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	lesson, err := findLesson(ctx, s.lessons, req.LessonID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	res, err := s.progress.Complete(ctx, userID, lesson.ID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record progress")
	}
	if res.Transitioned {
		s.metrics.RecordLessonCompleted()
		if lesson.Points > 0 {
			if _, err := s.users.AddPoints(ctx, userID, lesson.Points); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award lesson points")
			}
		}
	}

	cascade, err := s.cascade.Apply(ctx, userID, lesson)
	s.metrics.RecordCascade(cascade, err)
	if err != nil {
		s.logger.Error("progress cascade failed",
			zap.Int64("user_id", userID),
			zap.Int64("lesson_id", lesson.ID),
			zap.Error(err),
		)
		if s.cfg.CascadeStrict {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course progress")
		}
	}

	return &LessonCompletion{Progress: res.Progress, Created: res.Created, Cascade: cascade}, nil
}

// LessonStatus reports whether userID completed lessonID. A missing record
// means not completed.
func (s *ProgressService) LessonStatus(ctx context.Context, userID, lessonID int64) (*models.LessonStatus, error) {
	p, err := s.progress.Find(ctx, userID, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.LessonStatus{Completed: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	return &models.LessonStatus{Completed: p.Completed}, nil
}
