package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
)

// CascadeResult reports what one cascade run changed.
type CascadeResult struct {
	Progress             int                  `json:"progress"`
	CourseCompleted      bool                 `json:"courseCompleted"`
	CoursePointsAwarded  int                  `json:"coursePointsAwarded"`
	AchievementsUnlocked []models.Achievement `json:"achievementsUnlocked"`
	// Skipped is set when the lesson has no reachable course or the user is
	// not enrolled in it.
	Skipped bool `json:"skipped"`
}

// ProgressCascade recomputes enrollment progress after a lesson completion and
// awards course points and the first-course achievement on completion.
// Callers serialize runs per user.
type ProgressCascade struct {
	courses      repository.CourseStore
	modules      repository.ModuleStore
	lessons      repository.LessonStore
	enrollments  repository.EnrollmentStore
	progress     repository.ProgressStore
	users        repository.UserStore
	achievements repository.AchievementStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewProgressCascade(store *repository.Store, logger *zap.Logger) *ProgressCascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressCascade{
		courses:      store.Courses,
		modules:      store.Modules,
		lessons:      store.Lessons,
		enrollments:  store.Enrollments,
		progress:     store.Progress,
		users:        store.Users,
		achievements: store.Achievements,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Apply runs the cascade for userID after lesson was completed.
func (c *ProgressCascade) Apply(ctx context.Context, userID int64, lesson *models.Lesson) (*CascadeResult, error) {
	result := &CascadeResult{AchievementsUnlocked: []models.Achievement{}}

	module, err := c.modules.FindByID(ctx, lesson.ModuleID)
	if errors.Is(err, sql.ErrNoRows) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load module %d: %w", lesson.ModuleID, err)
	}
	course, err := c.courses.FindByID(ctx, module.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", module.CourseID, err)
	}
	enrollment, err := c.enrollments.Find(ctx, userID, course.ID)
	if errors.Is(err, sql.ErrNoRows) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}

	total, completed, err := c.countLessons(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	result.Progress = percentage(completed, total)
	if err := c.enrollments.SetProgress(ctx, enrollment.ID, result.Progress); err != nil {
		return nil, fmt.Errorf("update enrollment progress: %w", err)
	}
	if result.Progress < 100 {
		return result, nil
	}

	transitioned, err := c.enrollments.MarkCompleted(ctx, enrollment.ID, c.now())
	if err != nil {
		return nil, fmt.Errorf("mark enrollment completed: %w", err)
	}
	if !transitioned {
		return result, nil
	}
	result.CourseCompleted = true

	if course.Points > 0 {
		if _, err := c.users.AddPoints(ctx, userID, course.Points); err != nil {
			return result, fmt.Errorf("award course points: %w", err)
		}
		result.CoursePointsAwarded = course.Points
	}
	c.logger.Info("course completed",
		zap.Int64("user_id", userID),
		zap.Int64("course_id", course.ID),
		zap.Int("points", course.Points),
	)

	unlocked, err := c.grantFirstCourse(ctx, userID)
	if err != nil {
		return result, err
	}
	if unlocked != nil {
		result.AchievementsUnlocked = append(result.AchievementsUnlocked, *unlocked)
	}
	return result, nil
}

func (c *ProgressCascade) countLessons(ctx context.Context, userID, courseID int64) (total, completed int, err error) {
	done, err := c.progress.ListCompletedByUser(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("list completed lessons: %w", err)
	}
	finished := make(map[int64]struct{}, len(done))
	for _, p := range done {
		finished[p.LessonID] = struct{}{}
	}

	modules, err := c.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, 0, fmt.Errorf("list modules: %w", err)
	}
	for _, m := range modules {
		lessons, err := c.lessons.ListByModule(ctx, m.ID)
		if err != nil {
			return 0, 0, fmt.Errorf("list lessons of module %d: %w", m.ID, err)
		}
		for _, l := range lessons {
			total++
			if _, ok := finished[l.ID]; ok {
				completed++
			}
		}
	}
	return total, completed, nil
}

func (c *ProgressCascade) grantFirstCourse(ctx context.Context, userID int64) (*models.Achievement, error) {
	achievement, err := c.achievements.FindByTitle(ctx, models.FirstCourseAchievement)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load achievement: %w", err)
	}
	_, granted, err := c.achievements.Grant(ctx, userID, achievement.ID, c.now())
	if err != nil {
		return nil, fmt.Errorf("grant achievement: %w", err)
	}
	if !granted {
		return nil, nil
	}
	if achievement.Points > 0 {
		if _, err := c.users.AddPoints(ctx, userID, achievement.Points); err != nil {
			return achievement, fmt.Errorf("award achievement points: %w", err)
		}
	}
	c.logger.Info("achievement unlocked", zap.Int64("user_id", userID), zap.String("title", achievement.Title))
	return achievement, nil
}

// percentage is round(100 × done / total), 0 for an empty course.
func percentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
