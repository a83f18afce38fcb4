package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userCols = []string{"id", "username", "email", "password_hash", "full_name", "role", "avatar_url", "points", "streak", "last_login", "created_at"}

func TestMigrateRunsAllStatements(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectBegin()
	for range schemaStatements {
		mock.ExpectExec("CREATE|ALTER").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow(1, "student", "s@example.com", "hash", "Alex", "student", nil, 1248, 5, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1")).
		WithArgs("Student").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "Student")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, 1248, user.Points)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id").WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryCreateUnique(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users .* ON CONFLICT DO NOTHING").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u := &models.User{Username: "new", Email: "new@example.com", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateUnique(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, models.RoleStudent, u.Role)

	err := repo.CreateUnique(context.Background(), &models.User{Username: "new", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryAddPoints(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows(userCols).
		AddRow(1, "student", "s@example.com", "hash", "Alex", "student", nil, 35, 0, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET points = points + $2 WHERE id = $1")).
		WithArgs(int64(1), 25).
		WillReturnRows(rows)

	user, err := repo.AddPoints(context.Background(), 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 35, user.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	name := "Renamed"
	streak := 3
	rows := sqlmock.NewRows(userCols).
		AddRow(2, "t", "t@example.com", "hash", name, "teacher", nil, 0, streak, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET full_name = $1, streak = $2 WHERE id = $3")).
		WithArgs(name, streak, int64(2)).
		WillReturnRows(rows)

	user, err := repo.Update(context.Background(), 2, models.UserPatch{FullName: &name, Streak: &streak})
	require.NoError(t, err)
	assert.Equal(t, name, user.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "slug", "description", "image_url", "category", "level", "duration", "author_id", "points", "created_at", "updated_at"}).
		AddRow(1, "Python", "python", "desc", nil, "Data Science", "Intermediate", 8, 2, 450, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE LOWER(category) = LOWER($1) AND (LOWER(title) LIKE $2 OR LOWER(description) LIKE $2) ORDER BY id")).
		WithArgs("Data Science", "%py%").
		WillReturnRows(rows)

	courses, err := repo.List(context.Background(), models.CourseFilter{Category: "Data Science", Search: "Py"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 450, courses[0].Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("INSERT INTO courses").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	c := &models.Course{Title: "Go", Slug: "go", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(4), c.ID)

	deleted, err := repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListByModuleOrdered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	rows := sqlmock.NewRows([]string{"id", "module_id", "title", "content", "video_url", "type", "duration", "position", "points"}).
		AddRow(1, 3, "Intro", nil, nil, "video", 15, 1, 10).
		AddRow(2, 3, "Vars", "text", nil, "text", 20, 2, 15)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lessons WHERE module_id = $1 ORDER BY position, id")).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	lessons, err := repo.ListByModule(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, models.LessonVideo, lessons[0].Type)
	assert.Equal(t, 2, lessons[1].Order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var enrollmentCols = []string{"id", "user_id", "course_id", "progress", "completed", "certificate_issued", "enrolled_at", "completed_at"}

func TestEnrollmentRepositoryCreateIfAbsentConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO enrollments .* ON CONFLICT \\(user_id, course_id\\) DO NOTHING").
		WillReturnRows(sqlmock.NewRows(enrollmentCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE user_id = $1 AND course_id = $2")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(enrollmentCols).AddRow(8, 1, 2, 40, false, false, now, nil))

	e := &models.Enrollment{UserID: 1, CourseID: 2}
	created, err := repo.CreateIfAbsent(context.Background(), e)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(8), e.ID)
	assert.Equal(t, 40, e.Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments SET completed = TRUE, completed_at = \\$2 WHERE id = \\$1 AND completed = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE enrollments SET completed = TRUE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.MarkCompleted(context.Background(), 3, time.Now())
	require.NoError(t, err)
	second, err := repo.MarkCompleted(context.Background(), 3, time.Now())
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySetProgressMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments SET progress").WithArgs(int64(5), 50).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetProgress(context.Background(), 5, 50)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

var progressCols = []string{"id", "user_id", "lesson_id", "completed", "completed_at"}

func TestProgressRepositoryComplete(t *testing.T) {
	now := time.Now()

	t.Run("insert", func(t *testing.T) {
		db, mock, cleanup := newMock(t)
		defer cleanup()
		mock.ExpectQuery("INSERT INTO progress").
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(1, 1, 2, true, now))

		res, err := NewProgressRepository(db).Complete(context.Background(), 1, 2, now)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.True(t, res.Transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("transition existing", func(t *testing.T) {
		db, mock, cleanup := newMock(t)
		defer cleanup()
		mock.ExpectQuery("INSERT INTO progress").WillReturnRows(sqlmock.NewRows(progressCols))
		mock.ExpectQuery("UPDATE progress SET completed = TRUE").
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(1, 1, 2, true, now))

		res, err := NewProgressRepository(db).Complete(context.Background(), 1, 2, now)
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.True(t, res.Transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already completed", func(t *testing.T) {
		db, mock, cleanup := newMock(t)
		defer cleanup()
		mock.ExpectQuery("INSERT INTO progress").WillReturnRows(sqlmock.NewRows(progressCols))
		mock.ExpectQuery("UPDATE progress").WillReturnRows(sqlmock.NewRows(progressCols))
		mock.ExpectQuery("FROM progress WHERE user_id").
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(1, 1, 2, true, now))

		res, err := NewProgressRepository(db).Complete(context.Background(), 1, 2, now)
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.False(t, res.Transitioned)
		assert.True(t, res.Progress.Completed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAchievementRepositoryFindByTitleDecodesCriteria(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAchievementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "image_url", "criteria", "points"}).
		AddRow(1, models.FirstCourseAchievement, "Complete your first course", nil, []byte(`{"type":"course_completion","count":1}`), 50)
	mock.ExpectQuery(regexp.QuoteMeta("FROM achievements WHERE title = $1")).
		WithArgs(models.FirstCourseAchievement).
		WillReturnRows(rows)

	a, err := repo.FindByTitle(context.Background(), models.FirstCourseAchievement)
	require.NoError(t, err)
	assert.Equal(t, "course_completion", a.Criteria["type"])
	assert.Equal(t, float64(1), a.Criteria["count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAchievementRepositoryGrant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAchievementRepository(db)

	now := time.Now()
	cols := []string{"id", "user_id", "achievement_id", "unlocked_at"}
	mock.ExpectQuery("INSERT INTO user_achievements").WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, 1, now))
	mock.ExpectQuery("INSERT INTO user_achievements").WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery("FROM user_achievements WHERE user_id").WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, 1, now))

	_, granted, err := repo.Grant(context.Background(), 3, 1, now)
	require.NoError(t, err)
	assert.True(t, granted)

	ua, granted, err := repo.Grant(context.Background(), 3, 1, now)
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, int64(1), ua.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec("INSERT INTO export_jobs").WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ExportJob{UserID: 3, Format: models.ExportFormatPDF}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	status := models.ExportStatusProcessing
	progress := 10
	cols := []string{"id", "user_id", "format", "status", "progress", "result_url", "file_path", "error_message", "created_at", "finished_at"}
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, progress = $2 WHERE id = $3")).
		WithArgs(status, progress, job.ID).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(job.ID, 3, "pdf", "PROCESSING", 10, nil, nil, nil, job.CreatedAt, nil))

	updated, err := repo.Update(context.Background(), job.ID, models.ExportJobPatch{Status: &status, Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusProcessing, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
