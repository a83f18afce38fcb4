package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the relational schema. Unique indexes back the
// one-record-per-pair rules that the conditional inserts rely on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'student',
	avatar_url TEXT,
	points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
	streak INTEGER NOT NULL DEFAULT 0,
	last_login TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (LOWER(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS courses (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	description TEXT NOT NULL,
	image_url TEXT,
	category TEXT NOT NULL,
	level TEXT NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	author_id BIGINT NOT NULL REFERENCES users(id),
	points INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS modules (
	id BIGSERIAL PRIMARY KEY,
	course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT,
	position INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS modules_course_idx ON modules (course_id, position, id)`,
	`CREATE TABLE IF NOT EXISTS lessons (
	id BIGSERIAL PRIMARY KEY,
	module_id BIGINT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	content TEXT,
	video_url TEXT,
	type TEXT NOT NULL DEFAULT 'text',
	duration INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	points INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS lessons_module_idx ON lessons (module_id, position, id)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	course_id BIGINT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	certificate_issued BOOLEAN NOT NULL DEFAULT FALSE,
	enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ,
	UNIQUE (user_id, course_id)
)`,
	`CREATE TABLE IF NOT EXISTS progress (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	lesson_id BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at TIMESTAMPTZ,
	UNIQUE (user_id, lesson_id)
)`,
	`CREATE TABLE IF NOT EXISTS achievements (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	image_url TEXT,
	criteria JSONB NOT NULL DEFAULT '{}'::jsonb,
	points INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS user_achievements (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	achievement_id BIGINT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
	unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, achievement_id)
)`,
	`CREATE TABLE IF NOT EXISTS certificates (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	course_id BIGINT NOT NULL,
	certificate_url TEXT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, course_id)
)`,
	`CREATE TABLE IF NOT EXISTS export_jobs (
	id UUID PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	result_url TEXT,
	file_path TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at TIMESTAMPTZ
)`,
	// Enrollments and certificates outlive their course. Older schemas
	// cascaded the delete.
	`ALTER TABLE enrollments DROP CONSTRAINT IF EXISTS enrollments_course_id_fkey`,
	`ALTER TABLE certificates DROP CONSTRAINT IF EXISTS certificates_course_id_fkey`,
}

// Migrate applies the schema inside a single transaction. Every statement is
// idempotent so Migrate is safe to run at each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrate: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrate: %w", err)
	}
	return nil
}

// NewPostgresStore returns a Store backed by PostgreSQL.
func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Courses:      NewCourseRepository(db),
		Modules:      NewModuleRepository(db),
		Lessons:      NewLessonRepository(db),
		Enrollments:  NewEnrollmentRepository(db),
		Progress:     NewProgressRepository(db),
		Achievements: NewAchievementRepository(db),
		Certificates: NewCertificateRepository(db),
		ExportJobs:   NewExportJobRepository(db),
	}
}

// setClause accumulates "col = $n" fragments for partial updates.
type setClause struct {
	parts []string
	args  []interface{}
}

func (s *setClause) add(column string, value interface{}) {
	s.args = append(s.args, value)
	s.parts = append(s.parts, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setClause) empty() bool {
	return len(s.parts) == 0
}

// build renders the UPDATE statement; the id is appended as the last argument.
func (s *setClause) build(table, returning string, id interface{}) (string, []interface{}) {
	args := make([]interface{}, 0, len(s.args)+1)
	args = append(append(args, s.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s", table, strings.Join(s.parts, ", "), len(args), returning)
	return query, args
}
