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

// ModuleService manages course modules. Ownership is that of the parent course.
type ModuleService struct {
	courses   repository.CourseStore
	modules   repository.ModuleStore
	validator *validator.Validate
	logger    *zap.Logger
}

func NewModuleService(store *repository.Store, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ModuleService{courses: store.Courses, modules: store.Modules, validator: validate, logger: logger}
}

// Create adds a module to a course the actor manages.
func (s *ModuleService) Create(ctx context.Context, actor Actor, req dto.CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	course, err := findCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(course.AuthorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to add modules to this course")
	}
	module := &models.Module{
		CourseID:    course.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Order:       req.Order,
	}
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

func (s *ModuleService) Update(ctx context.Context, actor Actor, id int64, req dto.UpdateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	if _, err := s.authorize(ctx, actor, id, "Not authorized to update this module"); err != nil {
		return nil, err
	}
	updated, err := s.modules.Update(ctx, id, models.ModulePatch{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return updated, nil
}

// Delete removes the module and its lessons.
func (s *ModuleService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.authorize(ctx, actor, id, "Not authorized to delete this module"); err != nil {
		return err
	}
	removed, err := s.modules.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Module not found")
	}
	return nil
}

func (s *ModuleService) authorize(ctx context.Context, actor Actor, id int64, denied string) (*models.Module, error) {
	module, err := findModule(ctx, s.modules, id)
	if err != nil {
		return nil, err
	}
	course, err := findCourse(ctx, s.courses, module.CourseID)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(course.AuthorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, denied)
	}
	return module, nil
}

func findModule(ctx context.Context, modules repository.ModuleStore, id int64) (*models.Module, error) {
	module, err := modules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return module, nil
}
