package repository

import (
	"sort"
	"sync"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

// memoryDB is the shared state behind every memory-backed store. A single
// RWMutex guards all maps so multi-entity operations such as cascading
// deletes stay consistent.
type memoryDB struct {
	mu sync.RWMutex

	users            map[int64]models.User
	courses          map[int64]models.Course
	modules          map[int64]models.Module
	lessons          map[int64]models.Lesson
	enrollments      map[int64]models.Enrollment
	progress         map[int64]models.Progress
	achievements     map[int64]models.Achievement
	userAchievements map[int64]models.UserAchievement
	certificates     map[int64]models.Certificate
	exportJobs       map[string]models.ExportJob

	seq map[string]int64
}

// NewMemoryStore returns a Store whose state lives in process memory.
func NewMemoryStore() *Store {
	db := &memoryDB{
		users:            map[int64]models.User{},
		courses:          map[int64]models.Course{},
		modules:          map[int64]models.Module{},
		lessons:          map[int64]models.Lesson{},
		enrollments:      map[int64]models.Enrollment{},
		progress:         map[int64]models.Progress{},
		achievements:     map[int64]models.Achievement{},
		userAchievements: map[int64]models.UserAchievement{},
		certificates:     map[int64]models.Certificate{},
		exportJobs:       map[string]models.ExportJob{},
		seq:              map[string]int64{},
	}
	return &Store{
		Users:        &memoryUserStore{db: db},
		Courses:      &memoryCourseStore{db: db},
		Modules:      &memoryModuleStore{db: db},
		Lessons:      &memoryLessonStore{db: db},
		Enrollments:  &memoryEnrollmentStore{db: db},
		Progress:     &memoryProgressStore{db: db},
		Achievements: &memoryAchievementStore{db: db},
		Certificates: &memoryCertificateStore{db: db},
		ExportJobs:   &memoryExportJobStore{db: db},
	}
}

// nextID must be called with mu held for writing.
func (db *memoryDB) nextID(entity string) int64 {
	db.seq[entity]++
	return db.seq[entity]
}

// deleteModuleLocked removes a module, its lessons and their progress rows.
func (db *memoryDB) deleteModuleLocked(moduleID int64) {
	for id, lesson := range db.lessons {
		if lesson.ModuleID == moduleID {
			db.deleteLessonLocked(id)
		}
	}
	delete(db.modules, moduleID)
}

func (db *memoryDB) deleteLessonLocked(lessonID int64) {
	for id, p := range db.progress {
		if p.LessonID == lessonID {
			delete(db.progress, id)
		}
	}
	delete(db.lessons, lessonID)
}

// sortedValues returns the map values ordered by ascending id, which is
// creation order.
func sortedValues[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
