package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

const (
	courseColumns = `id, title, slug, description, image_url, category, level, duration, author_id, points, created_at, updated_at`
	moduleColumns = `id, course_id, title, description, position`
	lessonColumns = `id, module_id, title, content, video_url, type, duration, position, points`
)

// CourseRepository persists courses.
type CourseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		conditions = append(conditions, fmt.Sprintf("LOWER(level) = LOWER($%d)", len(args)))
	}
	if filter.AuthorID != 0 {
		args = append(args, filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (title, slug, description, image_url, category, level, duration, author_id, points, created_at, updated_at)
VALUES (:title, :slug, :description, :image_url, :category, :level, :duration, :author_id, :points, :created_at, :updated_at)
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return scanReturnedID(rows, &course.ID, "create course")
}

func (r *CourseRepository) Update(ctx context.Context, id int64, patch models.CoursePatch) (*models.Course, error) {
	set := &setClause{}
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Slug != nil {
		set.add("slug", *patch.Slug)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.ImageURL != nil {
		set.add("image_url", *patch.ImageURL)
	}
	if patch.Category != nil {
		set.add("category", *patch.Category)
	}
	if patch.Level != nil {
		set.add("level", *patch.Level)
	}
	if patch.Duration != nil {
		set.add("duration", *patch.Duration)
	}
	if patch.Points != nil {
		set.add("points", *patch.Points)
	}
	if patch.UpdatedAt != nil {
		set.add("updated_at", *patch.UpdatedAt)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}
	query, args := set.build("courses", courseColumns, id)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return &course, nil
}

// Delete removes the course; modules and lessons follow via ON DELETE CASCADE.
// Enrollments and certificates keep the dangling course id.
func (r *CourseRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, "courses", id)
}

// ModuleRepository persists course modules.
type ModuleRepository struct {
	db *sqlx.DB
}

func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) FindByID(ctx context.Context, id int64) (*models.Module, error) {
	var module models.Module
	if err := r.db.GetContext(ctx, &module, `SELECT `+moduleColumns+` FROM modules WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find module: %w", err)
	}
	return &module, nil
}

func (r *ModuleRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Module, error) {
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, `SELECT `+moduleColumns+` FROM modules WHERE course_id = $1 ORDER BY position, id`, courseID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	const query = `INSERT INTO modules (course_id, title, description, position)
VALUES (:course_id, :title, :description, :position)
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, module)
	if err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return scanReturnedID(rows, &module.ID, "create module")
}

func (r *ModuleRepository) Update(ctx context.Context, id int64, patch models.ModulePatch) (*models.Module, error) {
	set := &setClause{}
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.Order != nil {
		set.add("position", *patch.Order)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}
	query, args := set.build("modules", moduleColumns, id)
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update module: %w", err)
	}
	return &module, nil
}

func (r *ModuleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, "modules", id)
}

// LessonRepository persists lessons.
type LessonRepository struct {
	db *sqlx.DB
}

func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

func (r *LessonRepository) ListByModule(ctx context.Context, moduleID int64) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, `SELECT `+lessonColumns+` FROM lessons WHERE module_id = $1 ORDER BY position, id`, moduleID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	const query = `INSERT INTO lessons (module_id, title, content, video_url, type, duration, position, points)
VALUES (:module_id, :title, :content, :video_url, :type, :duration, :position, :points)
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, lesson)
	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return scanReturnedID(rows, &lesson.ID, "create lesson")
}

func (r *LessonRepository) Update(ctx context.Context, id int64, patch models.LessonPatch) (*models.Lesson, error) {
	set := &setClause{}
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Content != nil {
		set.add("content", *patch.Content)
	}
	if patch.VideoURL != nil {
		set.add("video_url", *patch.VideoURL)
	}
	if patch.Type != nil {
		set.add("type", *patch.Type)
	}
	if patch.Duration != nil {
		set.add("duration", *patch.Duration)
	}
	if patch.Order != nil {
		set.add("position", *patch.Order)
	}
	if patch.Points != nil {
		set.add("points", *patch.Points)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}
	query, args := set.build("lessons", lessonColumns, id)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update lesson: %w", err)
	}
	return &lesson, nil
}

func (r *LessonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, "lessons", id)
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return affected > 0, nil
}

func scanReturnedID(rows *sqlx.Rows, dest *int64, op string) error {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: no id returned", op)
	}
	if err := rows.Scan(dest); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
