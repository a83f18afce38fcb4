package dto

import "github.com/noah-isme/learnsmart-api/internal/models"

// UpdateUserRequest is the admin partial user update.
type UpdateUserRequest struct {
	FullName  *string          `json:"fullName" validate:"omitempty,min=1,max=120"`
	Email     *string          `json:"email" validate:"omitempty,email"`
	Role      *models.UserRole `json:"role" validate:"omitempty,oneof=student teacher admin"`
	AvatarURL *string          `json:"avatarUrl" validate:"omitempty,url"`
	Points    *int             `json:"points" validate:"omitempty,gte=0"`
	Streak    *int             `json:"streak" validate:"omitempty,gte=0"`
}
