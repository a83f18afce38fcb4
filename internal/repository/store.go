package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

// ErrDuplicate is returned when a uniqueness constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// Lookups of a single missing record return sql.ErrNoRows across all stores.

type UserStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// CreateUnique inserts the user unless the username or email is already
	// taken (case-insensitive), in which case ErrDuplicate is returned.
	CreateUnique(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	// AddPoints atomically increments the user's points by delta.
	AddPoints(ctx context.Context, id int64, delta int) (*models.User, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id int64, patch models.CoursePatch) (*models.Course, error)
	// Delete removes the course together with its modules and lessons.
	Delete(ctx context.Context, id int64) (bool, error)
}

type ModuleStore interface {
	FindByID(ctx context.Context, id int64) (*models.Module, error)
	// ListByCourse orders by Order then ID.
	ListByCourse(ctx context.Context, courseID int64) ([]models.Module, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, id int64, patch models.ModulePatch) (*models.Module, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type LessonStore interface {
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	// ListByModule orders by Order then ID.
	ListByModule(ctx context.Context, moduleID int64) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, id int64, patch models.LessonPatch) (*models.Lesson, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type EnrollmentStore interface {
	Find(ctx context.Context, userID, courseID int64) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Enrollment, error)
	// CreateIfAbsent inserts e unless (userID, courseID) is already enrolled.
	// On conflict e is overwritten with the existing row and created is false.
	CreateIfAbsent(ctx context.Context, e *models.Enrollment) (created bool, err error)
	SetProgress(ctx context.Context, id int64, progress int) error
	// MarkCompleted flips completed false→true and reports whether this call
	// performed the transition.
	MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkCertificateIssued(ctx context.Context, id int64) error
}

// CompletionResult describes the outcome of ProgressStore.Complete.
type CompletionResult struct {
	Progress models.Progress
	// Created is true when no record existed for (user, lesson) before.
	Created bool
	// Transitioned is true when completed flipped false→true in this call.
	Transitioned bool
}

type ProgressStore interface {
	Find(ctx context.Context, userID, lessonID int64) (*models.Progress, error)
	ListCompletedByUser(ctx context.Context, userID int64) ([]models.Progress, error)
	// Complete gets or creates the (user, lesson) record and marks it
	// completed in one atomic step.
	Complete(ctx context.Context, userID, lessonID int64, at time.Time) (CompletionResult, error)
}

type AchievementStore interface {
	FindByID(ctx context.Context, id int64) (*models.Achievement, error)
	FindByTitle(ctx context.Context, title string) (*models.Achievement, error)
	List(ctx context.Context) ([]models.Achievement, error)
	Create(ctx context.Context, a *models.Achievement) error
	Update(ctx context.Context, id int64, patch models.AchievementPatch) (*models.Achievement, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// Grant records the unlock unless it already exists; granted reports
	// whether a new record was written.
	Grant(ctx context.Context, userID, achievementID int64, at time.Time) (ua *models.UserAchievement, granted bool, err error)
	ListByUser(ctx context.Context, userID int64) ([]models.UserAchievement, error)
}

type CertificateStore interface {
	Find(ctx context.Context, userID, courseID int64) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Certificate, error)
	// CreateIfAbsent behaves like EnrollmentStore.CreateIfAbsent.
	CreateIfAbsent(ctx context.Context, c *models.Certificate) (created bool, err error)
}

type ExportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, patch models.ExportJobPatch) (*models.ExportJob, error)
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

// Store aggregates every entity store behind one owned value that is handed
// to the services.
type Store struct {
	Users        UserStore
	Courses      CourseStore
	Modules      ModuleStore
	Lessons      LessonStore
	Enrollments  EnrollmentStore
	Progress     ProgressStore
	Achievements AchievementStore
	Certificates CertificateStore
	ExportJobs   ExportJobStore
}
