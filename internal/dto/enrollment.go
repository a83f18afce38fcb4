package dto

// EnrollRequest captures POST /enrollments payload.
type EnrollRequest struct {
	CourseID int64 `json:"courseId" validate:"required,gt=0"`
}

// CompleteLessonRequest captures POST /progress payload.
type CompleteLessonRequest struct {
	LessonID int64 `json:"lessonId" validate:"required,gt=0"`
}
