package repository

import (
	"context"
	"database/sql"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

type memoryUserStore struct {
	db *memoryDB
}

func (s *memoryUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findBy(func(u models.User) bool {
		return models.NormalizeIdentity(u.Username) == models.NormalizeIdentity(username)
	})
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findBy(func(u models.User) bool {
		return models.NormalizeIdentity(u.Email) == models.NormalizeIdentity(email)
	})
}

func (s *memoryUserStore) findBy(match func(models.User) bool) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	matches := sortedValues(s.db.users, match)
	if len(matches) == 0 {
		return nil, sql.ErrNoRows
	}
	return &matches[0], nil
}

func (s *memoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return sortedValues(s.db.users, nil), nil
}

func (s *memoryUserStore) CreateUnique(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	username := models.NormalizeIdentity(user.Username)
	email := models.NormalizeIdentity(user.Email)
	for _, existing := range s.db.users {
		if models.NormalizeIdentity(existing.Username) == username || models.NormalizeIdentity(existing.Email) == email {
			return ErrDuplicate
		}
	}
	user.ID = s.db.nextID("users")
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	s.db.users[user.ID] = *user
	return nil
}

func (s *memoryUserStore) Update(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Email != nil {
		email := models.NormalizeIdentity(*patch.Email)
		for otherID, other := range s.db.users {
			if otherID != id && models.NormalizeIdentity(other.Email) == email {
				return nil, ErrDuplicate
			}
		}
	}
	patch.Apply(&u)
	s.db.users[id] = u
	return &u, nil
}

func (s *memoryUserStore) AddPoints(_ context.Context, id int64, delta int) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Points += delta
	s.db.users[id] = u
	return &u, nil
}
