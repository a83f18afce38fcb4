package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

type memoryCourseStore struct {
	db *memoryDB
}

func (s *memoryCourseStore) FindByID(_ context.Context, id int64) (*models.Course, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *memoryCourseStore) List(_ context.Context, filter models.CourseFilter) ([]models.Course, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedValues(s.db.courses, func(c models.Course) bool {
		if filter.Category != "" && !strings.EqualFold(c.Category, filter.Category) {
			return false
		}
		if filter.Level != "" && !strings.EqualFold(c.Level, filter.Level) {
			return false
		}
		if filter.AuthorID != 0 && c.AuthorID != filter.AuthorID {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			return false
		}
		return true
	}), nil
}

func (s *memoryCourseStore) Create(_ context.Context, course *models.Course) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	course.ID = s.db.nextID("courses")
	s.db.courses[course.ID] = *course
	return nil
}

func (s *memoryCourseStore) Update(_ context.Context, id int64, patch models.CoursePatch) (*models.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	patch.Apply(&c)
	s.db.courses[id] = c
	return &c, nil
}

func (s *memoryCourseStore) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.courses[id]; !ok {
		return false, nil
	}
	for moduleID, m := range s.db.modules {
		if m.CourseID == id {
			s.db.deleteModuleLocked(moduleID)
		}
	}
	delete(s.db.courses, id)
	return true, nil
}

type memoryModuleStore struct {
	db *memoryDB
}

func (s *memoryModuleStore) FindByID(_ context.Context, id int64) (*models.Module, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	m, ok := s.db.modules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (s *memoryModuleStore) ListByCourse(_ context.Context, courseID int64) ([]models.Module, error) {
	s.db.mu.RLock()
	out := sortedValues(s.db.modules, func(m models.Module) bool { return m.CourseID == courseID })
	s.db.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memoryModuleStore) Create(_ context.Context, module *models.Module) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	module.ID = s.db.nextID("modules")
	s.db.modules[module.ID] = *module
	return nil
}

func (s *memoryModuleStore) Update(_ context.Context, id int64, patch models.ModulePatch) (*models.Module, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.modules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	patch.Apply(&m)
	s.db.modules[id] = m
	return &m, nil
}

func (s *memoryModuleStore) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.modules[id]; !ok {
		return false, nil
	}
	s.db.deleteModuleLocked(id)
	return true, nil
}

type memoryLessonStore struct {
	db *memoryDB
}

func (s *memoryLessonStore) FindByID(_ context.Context, id int64) (*models.Lesson, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	l, ok := s.db.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (s *memoryLessonStore) ListByModule(_ context.Context, moduleID int64) ([]models.Lesson, error) {
	s.db.mu.RLock()
	out := sortedValues(s.db.lessons, func(l models.Lesson) bool { return l.ModuleID == moduleID })
	s.db.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memoryLessonStore) Create(_ context.Context, lesson *models.Lesson) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	lesson.ID = s.db.nextID("lessons")
	s.db.lessons[lesson.ID] = *lesson
	return nil
}

func (s *memoryLessonStore) Update(_ context.Context, id int64, patch models.LessonPatch) (*models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	l, ok := s.db.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	patch.Apply(&l)
	s.db.lessons[id] = l
	return &l, nil
}

func (s *memoryLessonStore) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.lessons[id]; !ok {
		return false, nil
	}
	s.db.deleteLessonLocked(id)
	return true, nil
}
