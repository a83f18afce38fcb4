package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

type memoryAchievementStore struct {
	db *memoryDB
}

func cloneAchievement(a models.Achievement) *models.Achievement {
	if a.Criteria != nil {
		criteria := make(models.Criteria, len(a.Criteria))
		for k, v := range a.Criteria {
			criteria[k] = v
		}
		a.Criteria = criteria
	}
	return &a
}

func (s *memoryAchievementStore) FindByID(_ context.Context, id int64) (*models.Achievement, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	a, ok := s.db.achievements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneAchievement(a), nil
}

func (s *memoryAchievementStore) FindByTitle(_ context.Context, title string) (*models.Achievement, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	matches := sortedValues(s.db.achievements, func(a models.Achievement) bool { return a.Title == title })
	if len(matches) == 0 {
		return nil, sql.ErrNoRows
	}
	return cloneAchievement(matches[0]), nil
}

func (s *memoryAchievementStore) List(_ context.Context) ([]models.Achievement, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	all := sortedValues(s.db.achievements, nil)
	for i := range all {
		all[i] = *cloneAchievement(all[i])
	}
	return all, nil
}

func (s *memoryAchievementStore) Create(_ context.Context, a *models.Achievement) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a.ID = s.db.nextID("achievements")
	s.db.achievements[a.ID] = *cloneAchievement(*a)
	return nil
}

func (s *memoryAchievementStore) Update(_ context.Context, id int64, patch models.AchievementPatch) (*models.Achievement, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.achievements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	patch.Apply(&a)
	a = *cloneAchievement(a)
	s.db.achievements[id] = a
	return cloneAchievement(a), nil
}

// Delete also drops the unlock records pointing at the achievement.
func (s *memoryAchievementStore) Delete(_ context.Context, id int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.achievements[id]; !ok {
		return false, nil
	}
	for uaID, ua := range s.db.userAchievements {
		if ua.AchievementID == id {
			delete(s.db.userAchievements, uaID)
		}
	}
	delete(s.db.achievements, id)
	return true, nil
}

func (s *memoryAchievementStore) Grant(_ context.Context, userID, achievementID int64, at time.Time) (*models.UserAchievement, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, ua := range s.db.userAchievements {
		if ua.UserID == userID && ua.AchievementID == achievementID {
			return &ua, false, nil
		}
	}
	ua := models.UserAchievement{
		ID:            s.db.nextID("user_achievements"),
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    at,
	}
	s.db.userAchievements[ua.ID] = ua
	return &ua, true, nil
}

func (s *memoryAchievementStore) ListByUser(_ context.Context, userID int64) ([]models.UserAchievement, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedValues(s.db.userAchievements, func(ua models.UserAchievement) bool { return ua.UserID == userID }), nil
}

type memoryCertificateStore struct {
	db *memoryDB
}

func (s *memoryCertificateStore) Find(_ context.Context, userID, courseID int64) (*models.Certificate, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if c, ok := s.findLocked(userID, courseID); ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memoryCertificateStore) findLocked(userID, courseID int64) (models.Certificate, bool) {
	for _, c := range s.db.certificates {
		if c.UserID == userID && c.CourseID == courseID {
			return c, true
		}
	}
	return models.Certificate{}, false
}

func (s *memoryCertificateStore) ListByUser(_ context.Context, userID int64) ([]models.Certificate, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedValues(s.db.certificates, func(c models.Certificate) bool { return c.UserID == userID }), nil
}

func (s *memoryCertificateStore) CreateIfAbsent(_ context.Context, c *models.Certificate) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if existing, ok := s.findLocked(c.UserID, c.CourseID); ok {
		*c = existing
		return false, nil
	}
	c.ID = s.db.nextID("certificates")
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	s.db.certificates[c.ID] = *c
	return true, nil
}
