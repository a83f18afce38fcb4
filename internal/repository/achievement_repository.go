package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

const (
	achievementColumns     = `id, title, description, image_url, criteria, points`
	userAchievementColumns = `id, user_id, achievement_id, unlocked_at`
	certificateColumns     = `id, user_id, course_id, certificate_url, issued_at`
)

// AchievementRepository persists achievements and their unlocks.
type AchievementRepository struct {
	db *sqlx.DB
}

func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func (r *AchievementRepository) FindByID(ctx context.Context, id int64) (*models.Achievement, error) {
	return r.getOne(ctx, "find achievement", `SELECT `+achievementColumns+` FROM achievements WHERE id = $1`, id)
}

func (r *AchievementRepository) FindByTitle(ctx context.Context, title string) (*models.Achievement, error) {
	return r.getOne(ctx, "find achievement by title", `SELECT `+achievementColumns+` FROM achievements WHERE title = $1 ORDER BY id LIMIT 1`, title)
}

func (r *AchievementRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.Achievement, error) {
	var a models.Achievement
	if err := r.db.GetContext(ctx, &a, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

func (r *AchievementRepository) List(ctx context.Context) ([]models.Achievement, error) {
	var out []models.Achievement
	if err := r.db.SelectContext(ctx, &out, `SELECT `+achievementColumns+` FROM achievements ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}

func (r *AchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	const query = `INSERT INTO achievements (title, description, image_url, criteria, points)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, a.Title, a.Description, a.ImageURL, a.Criteria, a.Points).Scan(&a.ID); err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

func (r *AchievementRepository) Update(ctx context.Context, id int64, patch models.AchievementPatch) (*models.Achievement, error) {
	set := &setClause{}
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.ImageURL != nil {
		set.add("image_url", *patch.ImageURL)
	}
	if patch.Criteria != nil {
		set.add("criteria", patch.Criteria)
	}
	if patch.Points != nil {
		set.add("points", *patch.Points)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}
	query, args := set.build("achievements", achievementColumns, id)
	return r.getOne(ctx, "update achievement", query, args...)
}

func (r *AchievementRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, "achievements", id)
}

func (r *AchievementRepository) Grant(ctx context.Context, userID, achievementID int64, at time.Time) (*models.UserAchievement, bool, error) {
	var ua models.UserAchievement
	const insert = `INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, achievement_id) DO NOTHING
RETURNING ` + userAchievementColumns
	err := r.db.GetContext(ctx, &ua, insert, userID, achievementID, at)
	if err == nil {
		return &ua, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("grant achievement: %w", err)
	}
	const existing = `SELECT ` + userAchievementColumns + ` FROM user_achievements WHERE user_id = $1 AND achievement_id = $2`
	if err := r.db.GetContext(ctx, &ua, existing, userID, achievementID); err != nil {
		return nil, false, fmt.Errorf("load user achievement: %w", err)
	}
	return &ua, false, nil
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]models.UserAchievement, error) {
	var out []models.UserAchievement
	const query = `SELECT ` + userAchievementColumns + ` FROM user_achievements WHERE user_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	return out, nil
}

// CertificateRepository persists issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

func (r *CertificateRepository) Find(ctx context.Context, userID, courseID int64) (*models.Certificate, error) {
	var c models.Certificate
	const query = `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = $1 AND course_id = $2`
	if err := r.db.GetContext(ctx, &c, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &c, nil
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID int64) ([]models.Certificate, error) {
	var out []models.Certificate
	const query = `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return out, nil
}

func (r *CertificateRepository) CreateIfAbsent(ctx context.Context, c *models.Certificate) (bool, error) {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates (user_id, course_id, certificate_url, issued_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, course_id) DO NOTHING
RETURNING ` + certificateColumns
	var created models.Certificate
	err := r.db.GetContext(ctx, &created, query, c.UserID, c.CourseID, c.CertificateURL, c.IssuedAt)
	if err == nil {
		*c = created
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("create certificate: %w", err)
	}
	existing, err := r.Find(ctx, c.UserID, c.CourseID)
	if err != nil {
		return false, err
	}
	*c = *existing
	return false, nil
}
