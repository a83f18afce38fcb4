package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

// CertificateService issues course certificates once an enrollment is completed.
type CertificateService struct {
	courses      repository.CourseStore
	enrollments  repository.EnrollmentStore
	certificates repository.CertificateStore
	logger       *zap.Logger
}

func NewCertificateService(store *repository.Store, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		courses:      store.Courses,
		enrollments:  store.Enrollments,
		certificates: store.Certificates,
		logger:       logger,
	}
}

// Issue returns the user's certificate for courseID, creating it on first
// call. created reports whether this call issued it.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID int64) (*models.Certificate, bool, error) {
	enrollment, err := s.enrollments.Find(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrCourseNotCompleted, "")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Completed {
		return nil, false, appErrors.Clone(appErrors.ErrCourseNotCompleted, "")
	}
	if _, err := findCourse(ctx, s.courses, courseID); err != nil {
		return nil, false, err
	}

	cert := &models.Certificate{
		UserID:         userID,
		CourseID:       courseID,
		CertificateURL: certificateURL(userID, courseID),
		IssuedAt:       time.Now().UTC(),
	}
	created, err := s.certificates.CreateIfAbsent(ctx, cert)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
	}
	if created {
		if err := s.enrollments.MarkCertificateIssued(ctx, enrollment.ID); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
		}
		s.logger.Info("certificate issued", zap.Int64("user_id", userID), zap.Int64("course_id", courseID))
	}
	return cert, created, nil
}

// ListMine returns the user's certificates with the course embedded.
func (s *CertificateService) ListMine(ctx context.Context, userID int64) ([]models.CertificateWithCourse, error) {
	certs, err := s.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	result := make([]models.CertificateWithCourse, 0, len(certs))
	for _, c := range certs {
		course, err := s.courses.FindByID(ctx, c.CourseID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		result = append(result, models.CertificateWithCourse{Certificate: c, Course: course})
	}
	return result, nil
}

// certificateURL names the certificate document. No document is rendered.
func certificateURL(userID, courseID int64) string {
	return fmt.Sprintf("certificate-%d-%d.pdf", userID, courseID)
}
