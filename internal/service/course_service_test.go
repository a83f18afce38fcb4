package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

func newCourseRequest(title string) dto.CreateCourseRequest {
	return dto.CreateCourseRequest{
		Title:       title,
		Description: "Learn things",
		Category:    "Programming",
		Level:       "Beginner",
		Duration:    3,
		Points:      120,
	}
}

func TestCourseServiceCreateSetsAuthorAndSlug(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, nil, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), actorOf(f.teacher), newCourseRequest("Rust for Gophers"))
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, course.AuthorID)
	assert.Equal(t, "rust-for-gophers", course.Slug)
	assert.False(t, course.CreatedAt.IsZero())
}

func TestCourseServiceCreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, nil, nil, nil)

	req := newCourseRequest("")
	_, err := svc.Create(context.Background(), actorOf(f.teacher), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCourseServiceListEmbedsAuthor(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, nil, nil, nil)

	items, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Author)
	assert.Equal(t, f.teacher.FullName, items[0].Author.FullName)

	items, err = svc.List(context.Background(), models.CourseFilter{Category: "Cooking"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCourseServiceGetTree(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, nil, nil, nil)
	ctx := context.Background()

	anon, err := svc.Get(ctx, f.course.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.IsEnrolled)
	require.Len(t, anon.Modules, 1)
	require.Len(t, anon.Modules[0].Lessons, 2)
	assert.Equal(t, f.lessons[0].ID, anon.Modules[0].Lessons[0].ID)

	f.enroll(t, f.student.ID)
	viewer, err := svc.Get(ctx, f.course.ID, f.student.ID)
	require.NoError(t, err)
	assert.True(t, viewer.IsEnrolled)
	assert.Equal(t, 0, viewer.Progress)

	_, err = svc.Get(ctx, 999, 0)
	require.Error(t, err)
	assert.Equal(t, "Course not found", appErrors.FromError(err).Message)
}

func TestCourseServiceUpdate(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, nil, nil, nil)
	ctx := context.Background()
	before := f.course.UpdatedAt

	time.Sleep(time.Millisecond)
	updated, err := svc.Update(ctx, actorOf(f.teacher), f.course.ID, dto.UpdateCourseRequest{Title: strPtr("Go Advanced")})
	require.NoError(t, err)
	assert.Equal(t, "Go Advanced", updated.Title)
	assert.Equal(t, "go-advanced", updated.Slug)
	assert.Equal(t, "Intro", updated.Description)
	assert.True(t, updated.UpdatedAt.After(before))

	other := createUser(t, f.store, "other", models.RoleTeacher)
	_, err = svc.Update(ctx, actorOf(other), f.course.ID, dto.UpdateCourseRequest{Points: intPtr(1)})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "Not authorized to update this course", appErr.Message)

	_, err = svc.Update(ctx, actorOf(f.admin), f.course.ID, dto.UpdateCourseRequest{Points: intPtr(1)})
	assert.NoError(t, err)
}

func TestCourseServiceDeleteCascades(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, nil, nil, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, actorOf(f.student), f.course.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, actorOf(f.teacher), f.course.ID))

	_, err = f.store.Modules.FindByID(ctx, f.module.ID)
	assert.Error(t, err)
	_, err = f.store.Lessons.FindByID(ctx, f.lessons[0].ID)
	assert.Error(t, err)

	err = svc.Delete(ctx, actorOf(f.teacher), f.course.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCourseServiceDeleteKeepsLearnerRecords(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, f.student.ID)
	ctx := context.Background()

	progress := newProgressServiceForTest(f.store, false)
	for _, l := range f.lessons {
		_, err := progress.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: l.ID})
		require.NoError(t, err)
	}
	certificates := NewCertificateService(f.store, nil)
	_, created, err := certificates.Issue(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, NewCourseService(f.store, nil, nil, nil).Delete(ctx, actorOf(f.teacher), f.course.ID))

	certs, err := certificates.ListMine(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, f.course.ID, certs[0].CourseID)
	assert.Nil(t, certs[0].Course)

	enrollments, err := NewEnrollmentService(f.store, nil, nil).ListMine(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.True(t, enrollments[0].Completed)
	assert.Nil(t, enrollments[0].Course)
}

func TestCourseServiceListCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	cache := NewCacheService(repository.NewCacheRepository(client, "test", zap.NewNop()), NewMetricsService(), time.Minute, zap.NewNop(), true)
	svc := NewCourseService(f.store, cache, nil, nil)
	ctx := context.Background()

	first, err := svc.List(ctx, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("test:courses:list:all"))

	// A write behind the service's back is invisible until invalidation.
	require.NoError(t, f.store.Courses.Create(ctx, &models.Course{Title: "Hidden", AuthorID: f.teacher.ID}))
	cached, err := svc.List(ctx, models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = svc.Create(ctx, actorOf(f.teacher), newCourseRequest("Visible"))
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:courses:list:all"))

	fresh, err := svc.List(ctx, models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestUserUpdateEvictsCourseListCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	cache := NewCacheService(repository.NewCacheRepository(client, "test", zap.NewNop()), NewMetricsService(), time.Minute, zap.NewNop(), true)
	courses := NewCourseService(f.store, cache, nil, nil)
	users := NewUserService(f.store.Users, cache, nil, nil)
	ctx := context.Background()

	_, err := courses.List(ctx, models.CourseFilter{})
	require.NoError(t, err)
	require.True(t, mr.Exists("test:courses:list:all"))

	points := 5
	_, err = users.Update(ctx, f.teacher.ID, dto.UpdateUserRequest{Points: &points})
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:courses:list:all"))

	name := "Renamed Teacher"
	_, err = users.Update(ctx, f.teacher.ID, dto.UpdateUserRequest{FullName: &name})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:courses:list:all"))

	fresh, err := courses.List(ctx, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	require.NotNil(t, fresh[0].Author)
	assert.Equal(t, "Renamed Teacher", fresh[0].Author.FullName)
}

func TestCourseListCacheKey(t *testing.T) {
	assert.Equal(t, "courses:list:all", courseListCacheKey(models.CourseFilter{}))
	a := courseListCacheKey(models.CourseFilter{Category: "Web"})
	b := courseListCacheKey(models.CourseFilter{Category: "web"})
	c := courseListCacheKey(models.CourseFilter{Level: "web"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestModuleServiceOwnership(t *testing.T) {
	f := newFixture(t)
	svc := NewModuleService(f.store, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, actorOf(f.student), dto.CreateModuleRequest{CourseID: f.course.ID, Title: "Nope"})
	require.Error(t, err)
	assert.Equal(t, "Not authorized to add modules to this course", appErrors.FromError(err).Message)

	m, err := svc.Create(ctx, actorOf(f.teacher), dto.CreateModuleRequest{CourseID: f.course.ID, Title: " Second ", Order: 2})
	require.NoError(t, err)
	assert.Equal(t, "Second", m.Title)

	updated, err := svc.Update(ctx, actorOf(f.admin), m.ID, dto.UpdateModuleRequest{Order: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Order)
	assert.Equal(t, "Second", updated.Title)

	err = svc.Delete(ctx, actorOf(f.student), m.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, actorOf(f.teacher), m.ID))

	err = svc.Delete(ctx, actorOf(f.teacher), m.ID)
	require.Error(t, err)
	assert.Equal(t, "Module not found", appErrors.FromError(err).Message)

	_, err = svc.Create(ctx, actorOf(f.teacher), dto.CreateModuleRequest{CourseID: 999, Title: "Ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLessonServiceOwnership(t *testing.T) {
	f := newFixture(t)
	svc := NewLessonService(f.store, nil, zap.NewNop())
	ctx := context.Background()

	req := dto.CreateLessonRequest{ModuleID: f.module.ID, Title: "Video", Type: models.LessonVideo, Points: 5}
	_, err := svc.Create(ctx, actorOf(f.student), req)
	require.Error(t, err)
	assert.Equal(t, "Not authorized to add lessons to this module", appErrors.FromError(err).Message)

	lesson, err := svc.Create(ctx, actorOf(f.teacher), req)
	require.NoError(t, err)
	assert.Equal(t, models.LessonVideo, lesson.Type)

	quiz := models.LessonQuiz
	updated, err := svc.Update(ctx, actorOf(f.teacher), lesson.ID, dto.UpdateLessonRequest{Type: &quiz})
	require.NoError(t, err)
	assert.Equal(t, models.LessonQuiz, updated.Type)
	assert.Equal(t, 5, updated.Points)

	bad := models.LessonType("podcast")
	_, err = svc.Update(ctx, actorOf(f.teacher), lesson.ID, dto.UpdateLessonRequest{Type: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.Delete(ctx, actorOf(f.student), lesson.ID)
	require.Error(t, err)
	assert.Equal(t, "Not authorized to delete this lesson", appErrors.FromError(err).Message)
	require.NoError(t, svc.Delete(ctx, actorOf(f.admin), lesson.ID))

	_, err = svc.Update(ctx, actorOf(f.teacher), lesson.ID, dto.UpdateLessonRequest{Title: strPtr("x")})
	require.Error(t, err)
	assert.Equal(t, "Lesson not found", appErrors.FromError(err).Message)
}
