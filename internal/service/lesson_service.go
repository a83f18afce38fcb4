package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

// LessonService manages lessons. Ownership resolves lesson → module → course.
type LessonService struct {
	courses   repository.CourseStore
	modules   repository.ModuleStore
	lessons   repository.LessonStore
	validator *validator.Validate
	logger    *zap.Logger
}

func NewLessonService(store *repository.Store, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LessonService{
		courses:   store.Courses,
		modules:   store.Modules,
		lessons:   store.Lessons,
		validator: validate,
		logger:    logger,
	}
}

func (s *LessonService) Create(ctx context.Context, actor Actor, req dto.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	module, err := findModule(ctx, s.modules, req.ModuleID)
	if err != nil {
		return nil, err
	}
	course, err := findCourse(ctx, s.courses, module.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(course.AuthorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to add lessons to this module")
	}
	lesson := &models.Lesson{
		ModuleID: module.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Type:     req.Type,
		Duration: req.Duration,
		Order:    req.Order,
		Points:   req.Points,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return lesson, nil
}

func (s *LessonService) Update(ctx context.Context, actor Actor, id int64, req dto.UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if err := s.authorize(ctx, actor, id, "Not authorized to update this lesson"); err != nil {
		return nil, err
	}
	updated, err := s.lessons.Update(ctx, id, models.LessonPatch{
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Type:     req.Type,
		Duration: req.Duration,
		Order:    req.Order,
		Points:   req.Points,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return updated, nil
}

func (s *LessonService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.authorize(ctx, actor, id, "Not authorized to delete this lesson"); err != nil {
		return err
	}
	removed, err := s.lessons.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
	}
	return nil
}

func (s *LessonService) authorize(ctx context.Context, actor Actor, id int64, denied string) error {
	lesson, err := findLesson(ctx, s.lessons, id)
	if err != nil {
		return err
	}
	module, err := findModule(ctx, s.modules, lesson.ModuleID)
	if err != nil {
		return err
	}
	course, err := findCourse(ctx, s.courses, module.CourseID)
	if err != nil {
		return err
	}
	if !actor.canManage(course.AuthorID) {
		return appErrors.Clone(appErrors.ErrForbidden, denied)
	}
	return nil
}

func findLesson(ctx context.Context, lessons repository.LessonStore, id int64) (*models.Lesson, error) {
	lesson, err := lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}
