package service

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

const courseListCachePattern = "courses:list:*"

// Actor identifies the authenticated caller of a mutation.
type Actor struct {
	ID   int64
	Role models.UserRole
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// canManage reports whether the actor may change content owned by authorID.
func (a Actor) canManage(authorID int64) bool {
	return a.IsAdmin() || a.ID == authorID
}

type authorLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// CourseService handles the course catalogue and course authoring.
type CourseService struct {
	courses     repository.CourseStore
	modules     repository.ModuleStore
	lessons     repository.LessonStore
	users       authorLookup
	enrollments repository.EnrollmentStore
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService wires a CourseService. cache may be nil.
func NewCourseService(store *repository.Store, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{
		courses:     store.Courses,
		modules:     store.Modules,
		lessons:     store.Lessons,
		users:       store.Users,
		enrollments: store.Enrollments,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// List returns courses matching filter with their authors embedded.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, error) {
	key := courseListCacheKey(filter)
	if s.cache.Enabled() {
		var cached []models.CourseSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	authors := make(map[int64]*models.AuthorSummary)
	result := make([]models.CourseSummary, 0, len(courses))
	for _, c := range courses {
		author, ok := authors[c.AuthorID]
		if !ok {
			author, err = s.author(ctx, c.AuthorID)
			if err != nil {
				return nil, err
			}
			authors[c.AuthorID] = author
		}
		result = append(result, models.CourseSummary{Course: c, Author: author})
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, result, 0)
	}
	return result, nil
}

// Get returns the full course tree. viewerID of zero means anonymous.
func (s *CourseService) Get(ctx context.Context, id, viewerID int64) (*models.CourseDetail, error) {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	author, err := s.author(ctx, course.AuthorID)
	if err != nil {
		return nil, err
	}

	modules, err := s.modules.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	tree := make([]models.ModuleWithLessons, 0, len(modules))
	for _, m := range modules {
		lessons, err := s.lessons.ListByModule(ctx, m.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
		}
		if lessons == nil {
			lessons = []models.Lesson{}
		}
		tree = append(tree, models.ModuleWithLessons{Module: m, Lessons: lessons})
	}

	detail := &models.CourseDetail{Course: *course, Author: author, Modules: tree}
	if viewerID != 0 {
		enrollment, err := s.enrollments.Find(ctx, viewerID, id)
		switch {
		case err == nil:
			detail.IsEnrolled = true
			detail.Progress = enrollment.Progress
			detail.Completed = enrollment.Completed
		case !errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
	}
	return detail, nil
}

// Create stores a new course authored by actor.
func (s *CourseService) Create(ctx context.Context, actor Actor, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	now := time.Now().UTC()
	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Level:       req.Level,
		Duration:    req.Duration,
		AuthorID:    actor.ID,
		Points:      req.Points,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.Int64("author_id", actor.ID))
	return course, nil
}

// Update applies a partial update. Only the author or an admin may update.
func (s *CourseService) Update(ctx context.Context, actor Actor, id int64, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(course.AuthorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not authorized to update this course")
	}

	now := time.Now().UTC()
	patch := models.CoursePatch{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Level:       req.Level,
		Duration:    req.Duration,
		Points:      req.Points,
		UpdatedAt:   &now,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		sl := slug.Make(title)
		patch.Title = &title
		patch.Slug = &sl
	}

	updated, err := s.courses.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes the course and everything under it.
func (s *CourseService) Delete(ctx context.Context, actor Actor, id int64) error {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return err
	}
	if !actor.canManage(course.AuthorID) {
		return appErrors.Clone(appErrors.ErrForbidden, "Not authorized to delete this course")
	}
	removed, err := s.courses.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Course not found")
	}
	s.invalidate(ctx)
	s.logger.Info("course deleted", zap.Int64("course_id", id), zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *CourseService) findCourse(ctx context.Context, id int64) (*models.Course, error) {
	return findCourse(ctx, s.courses, id)
}

func (s *CourseService) author(ctx context.Context, id int64) (*models.AuthorSummary, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author")
	}
	return user.Author(), nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, courseListCachePattern)
	}
}

func findCourse(ctx context.Context, courses repository.CourseStore, id int64) (*models.Course, error) {
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func courseListCacheKey(filter models.CourseFilter) string {
	if filter.IsZero() {
		return "courses:list:all"
	}
	raw := fmt.Sprintf("%s|%s|%d|%s",
		strings.ToLower(filter.Category), strings.ToLower(filter.Level), filter.AuthorID, strings.ToLower(strings.TrimSpace(filter.Search)))
	sum := sha1.Sum([]byte(raw))
	return "courses:list:" + hex.EncodeToString(sum[:8])
}
