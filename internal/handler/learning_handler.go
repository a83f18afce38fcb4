package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/service"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, userID int64, req dto.EnrollRequest) (*models.Enrollment, error)
	ListMine(ctx context.Context, userID int64) ([]models.EnrollmentWithCourse, error)
	Get(ctx context.Context, userID, courseID int64) (*models.Enrollment, error)
}

type progressService interface {
	CompleteLesson(ctx context.Context, userID int64, req dto.CompleteLessonRequest) (*service.LessonCompletion, error)
	LessonStatus(ctx context.Context, userID, lessonID int64) (*models.LessonStatus, error)
}

type certificateService interface {
	Issue(ctx context.Context, userID, courseID int64) (*models.Certificate, bool, error)
	ListMine(ctx context.Context, userID int64) ([]models.CertificateWithCourse, error)
}

// LearningHandler serves the learner journey: enrollments, lesson progress
// and certificates.
type LearningHandler struct {
	enrollments  enrollmentService
	progress     progressService
	certificates certificateService
}

func NewLearningHandler(enrollments enrollmentService, progress progressService, certificates certificateService) *LearningHandler {
	return &LearningHandler{enrollments: enrollments, progress: progress, certificates: certificates}
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags Learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.EnrollRequest true "Course to enroll in"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /enrollments [post]
func (h *LearningHandler) Enroll(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// MyEnrollments godoc
// @Summary List my enrollments
// @Tags Learning
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.EnrollmentWithCourse
// @Router /enrollments/me [get]
func (h *LearningHandler) MyEnrollments(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	items, err := h.enrollments.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// CourseEnrollment godoc
// @Summary My enrollment in a course
// @Tags Learning
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.Enrollment
// @Failure 404 {object} response.Message
// @Router /enrollments/course/{courseId} [get]
func (h *LearningHandler) CourseEnrollment(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// CompleteLesson godoc
// @Summary Mark a lesson completed
// @Description Records completion, awards lesson points on first completion and recomputes course progress
// @Tags Learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CompleteLessonRequest true "Lesson"
// @Success 201 {object} models.Progress
// @Success 200 {object} models.Progress
// @Failure 404 {object} response.Message
// @Router /progress [post]
func (h *LearningHandler) CompleteLesson(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CompleteLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.progress.CompleteLesson(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Created {
		response.Created(c, res.Progress)
		return
	}
	response.OK(c, res.Progress)
}

// LessonStatus godoc
// @Summary Lesson completion status
// @Tags Learning
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} models.LessonStatus
// @Router /progress/lesson/{lessonId} [get]
func (h *LearningHandler) LessonStatus(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	lessonID, ok := idParam(c, "lessonId")
	if !ok {
		return
	}
	status, err := h.progress.LessonStatus(c.Request.Context(), claims.UserID, lessonID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// IssueCertificate godoc
// @Summary Issue course certificate
// @Tags Learning
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 201 {object} models.Certificate
// @Success 200 {object} models.Certificate
// @Failure 400 {object} response.Message
// @Router /certificates/{courseId} [post]
func (h *LearningHandler) IssueCertificate(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	cert, created, err := h.certificates.Issue(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, cert)
		return
	}
	response.OK(c, cert)
}

// MyCertificates godoc
// @Summary List my certificates
// @Tags Learning
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CertificateWithCourse
// @Router /certificates/me [get]
func (h *LearningHandler) MyCertificates(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	items, err := h.certificates.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
