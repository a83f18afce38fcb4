package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/pkg/response"
)

type achievementService interface {
	List(ctx context.Context) ([]models.Achievement, error)
	ListMine(ctx context.Context, userID int64) ([]models.UserAchievementWithDetails, error)
	Create(ctx context.Context, req dto.AchievementRequest) (*models.Achievement, error)
	Update(ctx context.Context, id int64, req dto.UpdateAchievementRequest) (*models.Achievement, error)
	Delete(ctx context.Context, id int64) error
}

// AchievementHandler lists achievements and lets admins curate them.
type AchievementHandler struct {
	service achievementService
}

func NewAchievementHandler(svc achievementService) *AchievementHandler {
	return &AchievementHandler{service: svc}
}

// List godoc
// @Summary List achievements
// @Tags Achievements
// @Produce json
// @Success 200 {array} models.Achievement
// @Router /achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Mine godoc
// @Summary List my unlocked achievements
// @Tags Achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserAchievementWithDetails
// @Router /achievements/me [get]
func (h *AchievementHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Create achievement
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AchievementRequest true "Achievement payload"
// @Success 201 {object} models.Achievement
// @Failure 409 {object} response.Message
// @Router /admin/achievements [post]
func (h *AchievementHandler) Create(c *gin.Context) {
	var req dto.AchievementRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update achievement
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Param payload body dto.UpdateAchievementRequest true "Fields to change"
// @Success 200 {object} models.Achievement
// @Router /admin/achievements/{id} [put]
func (h *AchievementHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAchievementRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete achievement
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Achievement ID"
// @Success 200 {object} response.Message
// @Router /admin/achievements/{id} [delete]
func (h *AchievementHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Achievement deleted successfully")
}
