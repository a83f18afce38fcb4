package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account. Points only ever grow.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	Role         UserRole   `db:"role" json:"role"`
	AvatarURL    *string    `db:"avatar_url" json:"avatarUrl"`
	Points       int        `db:"points" json:"points"`
	Streak       int        `db:"streak" json:"streak"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// Profile returns the public projection of the user.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Points:   u.Points,
		Streak:   u.Streak,
	}
}

// Author returns the short form embedded in course payloads.
func (u User) Author() *AuthorSummary {
	return &AuthorSummary{ID: u.ID, FullName: u.FullName, Username: u.Username}
}

// UserProfile is what the API exposes for a user.
type UserProfile struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Role     UserRole `json:"role"`
	Points   int      `json:"points"`
	Streak   int      `json:"streak"`
}

// AuthorSummary identifies a course author.
type AuthorSummary struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// UserPatch holds optional user fields; nil fields are left untouched.
type UserPatch struct {
	Email     *string
	FullName  *string
	Role      *UserRole
	AvatarURL *string
	Points    *int
	Streak    *int
	LastLogin *time.Time
}

// Apply merges the non-nil fields of p into u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	if p.Points != nil {
		u.Points = *p.Points
	}
	if p.Streak != nil {
		u.Streak = *p.Streak
	}
	if p.LastLogin != nil {
		u.LastLogin = p.LastLogin
	}
}

// NormalizeIdentity lower-cases a username or email for uniqueness checks.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
