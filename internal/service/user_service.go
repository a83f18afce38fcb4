package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
}

// UserService handles admin user management.
type UserService struct {
	repo      userRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService. cache may be nil; when
// set, profile edits evict the course listings that embed author summaries.
func NewUserService(repo userRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every user profile in creation order.
func (s *UserService) List(ctx context.Context) ([]models.UserProfile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	profiles := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// Update applies an admin partial update and returns the new profile.
func (s *UserService) Update(ctx context.Context, id int64, req dto.UpdateUserRequest) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	patch := models.UserPatch{
		FullName:  req.FullName,
		Role:      req.Role,
		AvatarURL: req.AvatarURL,
		Points:    req.Points,
		Streak:    req.Streak,
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		patch.Email = &email
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrUserExists, "Email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	if req.FullName != nil && s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, courseListCachePattern)
	}

	s.logger.Info("user updated by admin", zap.Int64("user_id", id))
	profile := user.Profile()
	return &profile, nil
}
