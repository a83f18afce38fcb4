package dto

import "github.com/noah-isme/learnsmart-api/internal/models"

// AchievementRequest captures POST /admin/achievements payload.
type AchievementRequest struct {
	Title       string          `json:"title" validate:"required,max=120"`
	Description string          `json:"description" validate:"required"`
	ImageURL    *string         `json:"imageUrl"`
	Criteria    models.Criteria `json:"criteria"`
	Points      int             `json:"points" validate:"gte=0"`
}

// UpdateAchievementRequest is a partial achievement update.
type UpdateAchievementRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=120"`
	Description *string         `json:"description"`
	ImageURL    *string         `json:"imageUrl"`
	Criteria    models.Criteria `json:"criteria"`
	Points      *int            `json:"points" validate:"omitempty,gte=0"`
}
