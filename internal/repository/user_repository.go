package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learnsmart-api/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, role, avatar_url, points, streak, last_login, created_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "find user by username", `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CreateUnique relies on the lower(username) and lower(email) unique indexes;
// a conflicting insert returns no row.
func (r *UserRepository) CreateUnique(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	const query = `INSERT INTO users (username, email, password_hash, full_name, role, avatar_url, points, streak, last_login, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT DO NOTHING
RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.Role,
		user.AvatarURL, user.Points, user.Streak, user.LastLogin, user.CreatedAt,
	).Scan(&user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	set := &setClause{}
	if patch.Email != nil {
		set.add("email", *patch.Email)
	}
	if patch.FullName != nil {
		set.add("full_name", *patch.FullName)
	}
	if patch.Role != nil {
		set.add("role", *patch.Role)
	}
	if patch.AvatarURL != nil {
		set.add("avatar_url", *patch.AvatarURL)
	}
	if patch.Points != nil {
		set.add("points", *patch.Points)
	}
	if patch.Streak != nil {
		set.add("streak", *patch.Streak)
	}
	if patch.LastLogin != nil {
		set.add("last_login", *patch.LastLogin)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}
	query, args := set.build("users", userColumns, id)
	user, err := r.getOne(ctx, "update user", query, args...)
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return user, err
}

func (r *UserRepository) AddPoints(ctx context.Context, id int64, delta int) (*models.User, error) {
	return r.getOne(ctx, "add user points", `UPDATE users SET points = points + $2 WHERE id = $1 RETURNING `+userColumns, id, delta)
}
