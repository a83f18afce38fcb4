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

// AchievementService lists achievements and lets admins curate them.
type AchievementService struct {
	achievements repository.AchievementStore
	validator    *validator.Validate
	logger       *zap.Logger
}

func NewAchievementService(store *repository.Store, validate *validator.Validate, logger *zap.Logger) *AchievementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AchievementService{achievements: store.Achievements, validator: validate, logger: logger}
}

func (s *AchievementService) List(ctx context.Context) ([]models.Achievement, error) {
	items, err := s.achievements.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list achievements")
	}
	if items == nil {
		items = []models.Achievement{}
	}
	return items, nil
}

// ListMine returns the user's unlocks with the achievement embedded.
func (s *AchievementService) ListMine(ctx context.Context, userID int64) ([]models.UserAchievementWithDetails, error) {
	unlocks, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user achievements")
	}
	result := make([]models.UserAchievementWithDetails, 0, len(unlocks))
	for _, ua := range unlocks {
		a, err := s.achievements.FindByID(ctx, ua.AchievementID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievement")
		}
		result = append(result, models.UserAchievementWithDetails{UserAchievement: ua, Achievement: a})
	}
	return result, nil
}

func (s *AchievementService) Create(ctx context.Context, req dto.AchievementRequest) (*models.Achievement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid achievement payload")
	}
	title := strings.TrimSpace(req.Title)
	if err := s.ensureTitleFree(ctx, title, 0); err != nil {
		return nil, err
	}
	criteria := req.Criteria
	if criteria == nil {
		criteria = models.Criteria{}
	}
	achievement := &models.Achievement{
		Title:       title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Criteria:    criteria,
		Points:      req.Points,
	}
	if err := s.achievements.Create(ctx, achievement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create achievement")
	}
	s.logger.Info("achievement created", zap.Int64("achievement_id", achievement.ID), zap.String("title", title))
	return achievement, nil
}

func (s *AchievementService) Update(ctx context.Context, id int64, req dto.UpdateAchievementRequest) (*models.Achievement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid achievement payload")
	}
	patch := models.AchievementPatch{
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Criteria:    req.Criteria,
		Points:      req.Points,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := s.ensureTitleFree(ctx, title, id); err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	updated, err := s.achievements.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Achievement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update achievement")
	}
	return updated, nil
}

func (s *AchievementService) Delete(ctx context.Context, id int64) error {
	removed, err := s.achievements.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete achievement")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Achievement not found")
	}
	return nil
}

// ensureTitleFree keeps titles unique since the cascade looks achievements up by title.
func (s *AchievementService) ensureTitleFree(ctx context.Context, title string, selfID int64) error {
	existing, err := s.achievements.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check achievement title")
	}
	if existing.ID == selfID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrConflict, "Achievement title already exists")
}
