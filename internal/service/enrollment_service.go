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

// EnrollmentService enrolls users in courses and lists their enrollments.
type EnrollmentService struct {
	courses     repository.CourseStore
	enrollments repository.EnrollmentStore
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewEnrollmentService(store *repository.Store, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{courses: store.Courses, enrollments: store.Enrollments, validator: validate, logger: logger}
}

// Enroll creates the enrollment. A second enrollment for the same course is
// rejected by the store's conditional insert.
func (s *EnrollmentService) Enroll(ctx context.Context, userID int64, req dto.EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := findCourse(ctx, s.courses, req.CourseID); err != nil {
		return nil, err
	}
	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   req.CourseID,
		EnrolledAt: time.Now().UTC(),
	}
	created, err := s.enrollments.CreateIfAbsent(ctx, enrollment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}
	s.logger.Info("user enrolled", zap.Int64("user_id", userID), zap.Int64("course_id", req.CourseID))
	return enrollment, nil
}

// ListMine returns the user's enrollments with each course embedded. Courses
// that no longer exist are embedded as null.
func (s *EnrollmentService) ListMine(ctx context.Context, userID int64) ([]models.EnrollmentWithCourse, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	result := make([]models.EnrollmentWithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		course, err := s.courses.FindByID(ctx, e.CourseID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		result = append(result, models.EnrollmentWithCourse{Enrollment: e, Course: course})
	}
	return result, nil
}

// Get returns the user's enrollment in courseID.
func (s *EnrollmentService) Get(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.Find(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}
