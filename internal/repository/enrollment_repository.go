package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

const (
	enrollmentColumns = `id, user_id, course_id, progress, completed, certificate_issued, enrolled_at, completed_at`
	progressColumns   = `id, user_id, lesson_id, completed, completed_at`
)

// EnrollmentRepository persists course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Find(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	var e models.Enrollment
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	if err := r.db.GetContext(ctx, &e, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	var out []models.Enrollment
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return out, nil
}

func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, e *models.Enrollment) (bool, error) {
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (user_id, course_id, progress, completed, certificate_issued, enrolled_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, course_id) DO NOTHING
RETURNING ` + enrollmentColumns
	var created models.Enrollment
	err := r.db.GetContext(ctx, &created, query,
		e.UserID, e.CourseID, e.Progress, e.Completed, e.CertificateIssued, e.EnrolledAt, e.CompletedAt)
	if err == nil {
		*e = created
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	existing, err := r.Find(ctx, e.UserID, e.CourseID)
	if err != nil {
		return false, err
	}
	*e = *existing
	return false, nil
}

func (r *EnrollmentRepository) SetProgress(ctx context.Context, id int64, progress int) error {
	return r.execOne(ctx, "set enrollment progress", `UPDATE enrollments SET progress = $2 WHERE id = $1`, id, progress)
}

func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE enrollments SET completed = TRUE, completed_at = $2 WHERE id = $1 AND completed = FALSE`, id, at)
	if err != nil {
		return false, fmt.Errorf("mark enrollment completed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark enrollment completed: %w", err)
	}
	return affected == 1, nil
}

func (r *EnrollmentRepository) MarkCertificateIssued(ctx context.Context, id int64) error {
	return r.execOne(ctx, "mark certificate issued", `UPDATE enrollments SET certificate_issued = TRUE WHERE id = $1`, id)
}

func (r *EnrollmentRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ProgressRepository persists lesson completion records.
type ProgressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Find(ctx context.Context, userID, lessonID int64) (*models.Progress, error) {
	var p models.Progress
	const query = `SELECT ` + progressColumns + ` FROM progress WHERE user_id = $1 AND lesson_id = $2`
	if err := r.db.GetContext(ctx, &p, query, userID, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return &p, nil
}

func (r *ProgressRepository) ListCompletedByUser(ctx context.Context, userID int64) ([]models.Progress, error) {
	var out []models.Progress
	const query = `SELECT ` + progressColumns + ` FROM progress WHERE user_id = $1 AND completed = TRUE ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list completed progress: %w", err)
	}
	return out, nil
}

// Complete tries an insert first, then a guarded update, then a plain read.
// Each step is a single statement so concurrent callers agree on who
// created and who transitioned the row.
func (r *ProgressRepository) Complete(ctx context.Context, userID, lessonID int64, at time.Time) (CompletionResult, error) {
	var p models.Progress

	const insert = `INSERT INTO progress (user_id, lesson_id, completed, completed_at)
VALUES ($1, $2, TRUE, $3)
ON CONFLICT (user_id, lesson_id) DO NOTHING
RETURNING ` + progressColumns
	err := r.db.GetContext(ctx, &p, insert, userID, lessonID, at)
	if err == nil {
		return CompletionResult{Progress: p, Created: true, Transitioned: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return CompletionResult{}, fmt.Errorf("insert progress: %w", err)
	}

	const update = `UPDATE progress SET completed = TRUE, completed_at = $3
WHERE user_id = $1 AND lesson_id = $2 AND completed = FALSE
RETURNING ` + progressColumns
	err = r.db.GetContext(ctx, &p, update, userID, lessonID, at)
	if err == nil {
		return CompletionResult{Progress: p, Transitioned: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return CompletionResult{}, fmt.Errorf("complete progress: %w", err)
	}

	existing, err := r.Find(ctx, userID, lessonID)
	if err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{Progress: *existing}, nil
}
