package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

func newProgressServiceForTest(store *repository.Store, strict bool) *ProgressService {
	return NewProgressService(store, nil, NewMetricsService(), nil, zap.NewNop(), ProgressConfig{CascadeStrict: strict})
}

func TestCompleteLessonScenario(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, f.student.ID)
	svc := newProgressServiceForTest(f.store, false)
	ctx := context.Background()

	first, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[0].ID})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.Progress.Completed)
	require.NotNil(t, first.Cascade)
	assert.Equal(t, 50, first.Cascade.Progress)
	assert.False(t, first.Cascade.CourseCompleted)
	assert.Equal(t, 10, f.points(t, f.student.ID))

	second, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 100, second.Cascade.Progress)
	assert.True(t, second.Cascade.CourseCompleted)
	assert.Equal(t, 100, second.Cascade.CoursePointsAwarded)
	require.Len(t, second.Cascade.AchievementsUnlocked, 1)
	assert.Equal(t, models.FirstCourseAchievement, second.Cascade.AchievementsUnlocked[0].Title)

	enrollment, err := f.store.Enrollments.Find(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, enrollment.Progress)
	assert.True(t, enrollment.Completed)
	require.NotNil(t, enrollment.CompletedAt)

	// course 100 + lessons 10 + 15 + achievement 50
	assert.Equal(t, 175, f.points(t, f.student.ID))
}

func TestCompleteLessonTwiceDoesNotReaward(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, f.student.ID)
	svc := newProgressServiceForTest(f.store, false)
	ctx := context.Background()

	for _, l := range f.lessons {
		_, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: l.ID})
		require.NoError(t, err)
	}
	require.Equal(t, 175, f.points(t, f.student.ID))

	again, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[0].ID})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, 100, again.Cascade.Progress)
	assert.False(t, again.Cascade.CourseCompleted)
	assert.Empty(t, again.Cascade.AchievementsUnlocked)
	assert.Equal(t, 175, f.points(t, f.student.ID))

	unlocks, err := f.store.Achievements.ListByUser(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Len(t, unlocks, 1)
}

func TestCompleteLessonWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := newProgressServiceForTest(f.store, false)
	ctx := context.Background()

	res, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[0].ID})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Cascade.Skipped)
	assert.Equal(t, 10, f.points(t, f.student.ID))

	_, err = f.store.Enrollments.Find(ctx, f.student.ID, f.course.ID)
	assert.Error(t, err)

	status, err := svc.LessonStatus(ctx, f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, status.Completed)
}

func TestCompleteLessonUnknownLesson(t *testing.T) {
	f := newFixture(t)
	svc := newProgressServiceForTest(f.store, false)

	_, err := svc.CompleteLesson(context.Background(), f.student.ID, dto.CompleteLessonRequest{LessonID: 999})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Lesson not found", appErr.Message)
}

func TestCompleteLessonValidation(t *testing.T) {
	f := newFixture(t)
	svc := newProgressServiceForTest(f.store, false)

	_, err := svc.CompleteLesson(context.Background(), f.student.ID, dto.CompleteLessonRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLessonStatusWithoutRecord(t *testing.T) {
	f := newFixture(t)
	svc := newProgressServiceForTest(f.store, false)

	status, err := svc.LessonStatus(context.Background(), f.student.ID, f.lessons[1].ID)
	require.NoError(t, err)
	assert.False(t, status.Completed)
}

func TestCompleteLessonEmptyModuleCountsOnlyLessons(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, f.student.ID)
	ctx := context.Background()
	require.NoError(t, f.store.Modules.Create(ctx, &models.Module{CourseID: f.course.ID, Title: "Empty", Order: 2}))
	svc := newProgressServiceForTest(f.store, false)

	res, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Cascade.Progress)
}

func TestCompleteLessonConcurrentFirstCompletion(t *testing.T) {
	f := newFixture(t)
	f.enroll(t, f.student.ID)
	svc := newProgressServiceForTest(f.store, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, l := range f.lessons {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				_, err := svc.CompleteLesson(ctx, f.student.ID, dto.CompleteLessonRequest{LessonID: id})
				assert.NoError(t, err)
			}(l.ID)
		}
	}
	wg.Wait()

	assert.Equal(t, 175, f.points(t, f.student.ID))
}

// failingEnrollments breaks SetProgress so the cascade errors after the
// lesson itself was recorded.
type failingEnrollments struct {
	repository.EnrollmentStore
}

func (failingEnrollments) SetProgress(ctx context.Context, id int64, progress int) error {
	return errors.New("disk full")
}

func TestCompleteLessonCascadeFailurePolicy(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		f := newFixture(t)
		f.enroll(t, f.student.ID)
		f.store.Enrollments = failingEnrollments{f.store.Enrollments}
		svc := newProgressServiceForTest(f.store, false)

		res, err := svc.CompleteLesson(context.Background(), f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[0].ID})
		require.NoError(t, err)
		assert.True(t, res.Progress.Completed)
		assert.Nil(t, res.Cascade)
	})

	t.Run("strict", func(t *testing.T) {
		f := newFixture(t)
		f.enroll(t, f.student.ID)
		f.store.Enrollments = failingEnrollments{f.store.Enrollments}
		svc := newProgressServiceForTest(f.store, true)

		_, err := svc.CompleteLesson(context.Background(), f.student.ID, dto.CompleteLessonRequest{LessonID: f.lessons[0].ID})
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)

		p, err := f.store.Progress.Find(context.Background(), f.student.ID, f.lessons[0].ID)
		require.NoError(t, err)
		assert.True(t, p.Completed)
	})
}

func TestProgressCascadeSkipsOrphanLesson(t *testing.T) {
	f := newFixture(t)
	cascade := NewProgressCascade(f.store, zap.NewNop())

	res, err := cascade.Apply(context.Background(), f.student.ID, &models.Lesson{ID: 77, ModuleID: 4242})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestProgressCascadeWithoutAchievement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deleted, err := f.store.Achievements.Delete(ctx, f.achievement.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	f.enroll(t, f.student.ID)

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cascade := NewProgressCascade(f.store, zap.NewNop())
	cascade.now = func() time.Time { return fixed }
	for _, l := range f.lessons {
		_, err := f.store.Progress.Complete(ctx, f.student.ID, l.ID, fixed)
		require.NoError(t, err)
	}

	res, err := cascade.Apply(ctx, f.student.ID, f.lessons[1])
	require.NoError(t, err)
	assert.True(t, res.CourseCompleted)
	assert.Empty(t, res.AchievementsUnlocked)
	assert.Equal(t, 100, f.points(t, f.student.ID))

	e, err := f.store.Enrollments.Find(ctx, f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, fixed.Equal(*e.CompletedAt))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, percentage(0, 0))
	assert.Equal(t, 33, percentage(1, 3))
	assert.Equal(t, 67, percentage(2, 3))
	assert.Equal(t, 100, percentage(3, 3))
}
