package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
)

// fixture is a small catalogue: one teacher-authored course worth 100 points
// with a single module holding lessons worth 10 and 15.
type fixture struct {
	store       *repository.Store
	admin       *models.User
	teacher     *models.User
	student     *models.User
	course      *models.Course
	module      *models.Module
	lessons     []*models.Lesson
	achievement *models.Achievement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	f := &fixture{store: store}

	f.admin = createUser(t, store, "root", models.RoleAdmin)
	f.teacher = createUser(t, store, "teach", models.RoleTeacher)
	f.student = createUser(t, store, "learner", models.RoleStudent)

	now := time.Now().UTC()
	f.course = &models.Course{
		Title:       "Go Basics",
		Slug:        "go-basics",
		Description: "Intro",
		Category:    "Programming",
		Level:       "Beginner",
		Duration:    4,
		AuthorID:    f.teacher.ID,
		Points:      100,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Courses.Create(ctx, f.course))

	f.module = &models.Module{CourseID: f.course.ID, Title: "Start", Order: 1}
	require.NoError(t, store.Modules.Create(ctx, f.module))

	for i, pts := range []int{10, 15} {
		l := &models.Lesson{ModuleID: f.module.ID, Title: "Lesson", Type: models.LessonText, Order: i + 1, Points: pts}
		require.NoError(t, store.Lessons.Create(ctx, l))
		f.lessons = append(f.lessons, l)
	}

	f.achievement = &models.Achievement{
		Title:       models.FirstCourseAchievement,
		Description: "Complete your first course",
		Criteria:    models.Criteria{"type": "course_completion"},
		Points:      50,
	}
	require.NoError(t, store.Achievements.Create(ctx, f.achievement))
	return f
}

func createUser(t *testing.T, store *repository.Store, username string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username + " user",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Users.CreateUnique(context.Background(), u))
	return u
}

func (f *fixture) enroll(t *testing.T, userID int64) *models.Enrollment {
	t.Helper()
	e := &models.Enrollment{UserID: userID, CourseID: f.course.ID}
	created, err := f.store.Enrollments.CreateIfAbsent(context.Background(), e)
	require.NoError(t, err)
	require.True(t, created)
	return e
}

func (f *fixture) points(t *testing.T, userID int64) int {
	t.Helper()
	u, err := f.store.Users.FindByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Points
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
