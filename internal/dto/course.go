package dto

import "github.com/noah-isme/learnsmart-api/internal/models"

// CreateCourseRequest captures POST /courses payload. The author is always the caller.
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	Category    string  `json:"category" validate:"required,max=100"`
	Level       string  `json:"level" validate:"required,max=50"`
	Duration    int     `json:"duration" validate:"gte=0"`
	Points      int     `json:"points" validate:"gte=0"`
}

// UpdateCourseRequest is a partial course update; absent fields are untouched.
type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Level       *string `json:"level" validate:"omitempty,max=50"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
	Points      *int    `json:"points" validate:"omitempty,gte=0"`
}

// CourseQuery binds the optional GET /courses filters.
type CourseQuery struct {
	Category string `form:"category"`
	Level    string `form:"level"`
	AuthorID int64  `form:"authorId"`
	Search   string `form:"search"`
}

// Filter converts the query into a store filter.
func (q CourseQuery) Filter() models.CourseFilter {
	return models.CourseFilter{
		Category: q.Category,
		Level:    q.Level,
		AuthorID: q.AuthorID,
		Search:   q.Search,
	}
}

// CreateModuleRequest captures POST /modules payload.
type CreateModuleRequest struct {
	CourseID    int64   `json:"courseId" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	Order       int     `json:"order" validate:"gte=0"`
}

type UpdateModuleRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
}

// CreateLessonRequest captures POST /lessons payload.
type CreateLessonRequest struct {
	ModuleID int64             `json:"moduleId" validate:"required,gt=0"`
	Title    string            `json:"title" validate:"required,max=200"`
	Content  *string           `json:"content"`
	VideoURL *string           `json:"videoUrl" validate:"omitempty,url"`
	Type     models.LessonType `json:"type" validate:"required,oneof=text video quiz assignment"`
	Duration int               `json:"duration" validate:"gte=0"`
	Order    int               `json:"order" validate:"gte=0"`
	Points   int               `json:"points" validate:"gte=0"`
}

type UpdateLessonRequest struct {
	Title    *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string            `json:"content"`
	VideoURL *string            `json:"videoUrl" validate:"omitempty,url"`
	Type     *models.LessonType `json:"type" validate:"omitempty,oneof=text video quiz assignment"`
	Duration *int               `json:"duration" validate:"omitempty,gte=0"`
	Order    *int               `json:"order" validate:"omitempty,gte=0"`
	Points   *int               `json:"points" validate:"omitempty,gte=0"`
}
