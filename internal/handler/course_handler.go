package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/middleware"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/service"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, error)
	Get(ctx context.Context, id, viewerID int64) (*models.CourseDetail, error)
	Create(ctx context.Context, actor service.Actor, req dto.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, actor service.Actor, id int64, req dto.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor service.Actor, id int64) error
}

// CourseHandler exposes the course catalogue.
type CourseHandler struct {
	service courseService
}

func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param category query string false "Category"
// @Param level query string false "Level"
// @Param authorId query int false "Author ID"
// @Param search query string false "Title search"
// @Success 200 {array} models.CourseSummary
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var query dto.CourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid query parameters"))
		return
	}
	courses, err := h.service.List(c.Request.Context(), query.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// Get godoc
// @Summary Course detail
// @Description Returns the course tree. Authenticated callers also get their enrollment state.
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseDetail
// @Failure 404 {object} response.Message
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var viewerID int64
	if claims, ok := middleware.CurrentClaims(c); ok {
		viewerID = claims.UserID
	}
	detail, err := h.service.Get(c.Request.Context(), id, viewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} models.Course
// @Failure 400 {object} response.Message
// @Failure 403 {object} response.Message
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param payload body dto.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} models.Course
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Delete godoc
// @Summary Delete course
// @Description Removes the course with its modules and lessons
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.Message
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Course deleted successfully")
}
