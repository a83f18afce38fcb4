package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/service"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

type moduleService interface {
	Create(ctx context.Context, actor service.Actor, req dto.CreateModuleRequest) (*models.Module, error)
	Update(ctx context.Context, actor service.Actor, id int64, req dto.UpdateModuleRequest) (*models.Module, error)
	Delete(ctx context.Context, actor service.Actor, id int64) error
}

type lessonService interface {
	Create(ctx context.Context, actor service.Actor, req dto.CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, actor service.Actor, id int64, req dto.UpdateLessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, actor service.Actor, id int64) error
}

// ContentHandler manages the modules and lessons inside a course.
type ContentHandler struct {
	modules moduleService
	lessons lessonService
}

func NewContentHandler(modules moduleService, lessons lessonService) *ContentHandler {
	return &ContentHandler{modules: modules, lessons: lessons}
}

// CreateModule godoc
// @Summary Add module to a course
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateModuleRequest true "Module payload"
// @Success 201 {object} models.Module
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /modules [post]
func (h *ContentHandler) CreateModule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateModuleRequest
	if !bindJSON(c, &req) {
		return
	}
	module, err := h.modules.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// UpdateModule godoc
// @Summary Update module
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Module ID"
// @Param payload body dto.UpdateModuleRequest true "Fields to change"
// @Success 200 {object} models.Module
// @Router /modules/{id} [put]
func (h *ContentHandler) UpdateModule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateModuleRequest
	if !bindJSON(c, &req) {
		return
	}
	module, err := h.modules.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, module)
}

// DeleteModule godoc
// @Summary Delete module
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path int true "Module ID"
// @Success 200 {object} response.Message
// @Router /modules/{id} [delete]
func (h *ContentHandler) DeleteModule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.modules.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Module deleted successfully")
}

// CreateLesson godoc
// @Summary Add lesson to a module
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} models.Lesson
// @Failure 403 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /lessons [post]
func (h *ContentHandler) CreateLesson(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.CreateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// UpdateLesson godoc
// @Summary Update lesson
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Fields to change"
// @Success 200 {object} models.Lesson
// @Router /lessons/{id} [put]
func (h *ContentHandler) UpdateLesson(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.lessons.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// DeleteLesson godoc
// @Summary Delete lesson
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Message
// @Router /lessons/{id} [delete]
func (h *ContentHandler) DeleteLesson(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.lessons.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Lesson deleted successfully")
}
