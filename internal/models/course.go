package models

import "time"

// Course is the top of the content hierarchy course → module → lesson.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	ImageURL    *string   `db:"image_url" json:"imageUrl"`
	Category    string    `db:"category" json:"category"`
	Level       string    `db:"level" json:"level"`
	Duration    int       `db:"duration" json:"duration"`
	AuthorID    int64     `db:"author_id" json:"authorId"`
	Points      int       `db:"points" json:"points"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseFilter narrows course listings. Zero values mean "any".
type CourseFilter struct {
	Category string
	Level    string
	AuthorID int64
	Search   string
}

// IsZero reports whether the filter selects every course.
func (f CourseFilter) IsZero() bool {
	return f == CourseFilter{}
}

type CoursePatch struct {
	Title       *string
	Slug        *string
	Description *string
	ImageURL    *string
	Category    *string
	Level       *string
	Duration    *int
	Points      *int
	UpdatedAt   *time.Time
}

func (p CoursePatch) Apply(c *Course) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Slug != nil {
		c.Slug = *p.Slug
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ImageURL != nil {
		c.ImageURL = p.ImageURL
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.Points != nil {
		c.Points = *p.Points
	}
	if p.UpdatedAt != nil {
		c.UpdatedAt = *p.UpdatedAt
	}
}

// CourseSummary is a course with its author embedded, as listed publicly.
type CourseSummary struct {
	Course
	Author *AuthorSummary `json:"author"`
}

// ModuleWithLessons is a module carrying its ordered lessons.
type ModuleWithLessons struct {
	Module
	Lessons []Lesson `json:"lessons"`
}

// CourseDetail is the full course tree plus the viewer's enrollment state.
type CourseDetail struct {
	Course
	Author     *AuthorSummary      `json:"author"`
	Modules    []ModuleWithLessons `json:"modules"`
	IsEnrolled bool                `json:"isEnrolled"`
	Progress   int                 `json:"progress"`
	Completed  bool                `json:"completed"`
}

// Module groups lessons inside a course.
type Module struct {
	ID          int64   `db:"id" json:"id"`
	CourseID    int64   `db:"course_id" json:"courseId"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description"`
	Order       int     `db:"position" json:"order"`
}

type ModulePatch struct {
	Title       *string
	Description *string
	Order       *int
}

func (p ModulePatch) Apply(m *Module) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = p.Description
	}
	if p.Order != nil {
		m.Order = *p.Order
	}
}

// LessonType enumerates lesson formats.
type LessonType string

const (
	LessonText       LessonType = "text"
	LessonVideo      LessonType = "video"
	LessonQuiz       LessonType = "quiz"
	LessonAssignment LessonType = "assignment"
)

type Lesson struct {
	ID       int64      `db:"id" json:"id"`
	ModuleID int64      `db:"module_id" json:"moduleId"`
	Title    string     `db:"title" json:"title"`
	Content  *string    `db:"content" json:"content"`
	VideoURL *string    `db:"video_url" json:"videoUrl"`
	Type     LessonType `db:"type" json:"type"`
	Duration int        `db:"duration" json:"duration"`
	Order    int        `db:"position" json:"order"`
	Points   int        `db:"points" json:"points"`
}

type LessonPatch struct {
	Title    *string
	Content  *string
	VideoURL *string
	Type     *LessonType
	Duration *int
	Order    *int
	Points   *int
}

func (p LessonPatch) Apply(l *Lesson) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Content != nil {
		l.Content = p.Content
	}
	if p.VideoURL != nil {
		l.VideoURL = p.VideoURL
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Duration != nil {
		l.Duration = *p.Duration
	}
	if p.Order != nil {
		l.Order = *p.Order
	}
	if p.Points != nil {
		l.Points = *p.Points
	}
}
