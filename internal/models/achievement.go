package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FirstCourseAchievement is the title of the achievement granted by the
// progress cascade on a user's first completed course.
const FirstCourseAchievement = "First Course Completed"

// Criteria is the free-form JSON object describing how an achievement is
// earned. It is persisted as JSONB.
type Criteria map[string]interface{}

func (c Criteria) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal achievement criteria: %w", err)
	}
	return data, nil
}

func (c *Criteria) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*c = Criteria{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Criteria", value)
	}
	if len(data) == 0 {
		*c = Criteria{}
		return nil
	}
	out := Criteria{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal achievement criteria: %w", err)
	}
	*c = out
	return nil
}

type Achievement struct {
	ID          int64    `db:"id" json:"id"`
	Title       string   `db:"title" json:"title"`
	Description string   `db:"description" json:"description"`
	ImageURL    *string  `db:"image_url" json:"imageUrl"`
	Criteria    Criteria `db:"criteria" json:"criteria"`
	Points      int      `db:"points" json:"points"`
}

type AchievementPatch struct {
	Title       *string
	Description *string
	ImageURL    *string
	Criteria    Criteria
	Points      *int
}

func (p AchievementPatch) Apply(a *Achievement) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.ImageURL != nil {
		a.ImageURL = p.ImageURL
	}
	if p.Criteria != nil {
		a.Criteria = p.Criteria
	}
	if p.Points != nil {
		a.Points = *p.Points
	}
}

// UserAchievement is an unlock record.
type UserAchievement struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	AchievementID int64     `db:"achievement_id" json:"achievementId"`
	UnlockedAt    time.Time `db:"unlocked_at" json:"unlockedAt"`
}

type UserAchievementWithDetails struct {
	UserAchievement
	Achievement *Achievement `json:"achievement"`
}

// Certificate is issued once per completed (user, course).
type Certificate struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"userId"`
	CourseID       int64     `db:"course_id" json:"courseId"`
	CertificateURL string    `db:"certificate_url" json:"certificateUrl"`
	IssuedAt       time.Time `db:"issued_at" json:"issuedAt"`
}

type CertificateWithCourse struct {
	Certificate
	Course *Course `json:"course"`
}
