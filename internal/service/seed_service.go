package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
)

// SeedService loads the demo catalogue into an empty store.
type SeedService struct {
	store  *repository.Store
	logger *zap.Logger
	cost   int
}

func NewSeedService(store *repository.Store, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{store: store, logger: logger, cost: bcrypt.DefaultCost}
}

type seedUser struct {
	username, password, email, fullName string
	role                                models.UserRole
}

type seedLesson struct {
	title, content string
	duration       int
	points         int
}

type seedModule struct {
	title, description string
	lessons            []seedLesson
}

type seedCourse struct {
	title, description, imageURL, category, level string
	duration, points                              int
	modules                                       []seedModule
	progress                                      int
}

var demoUsers = []seedUser{
	{"admin", "admin123", "admin@learnsmart.com", "Admin User", models.RoleAdmin},
	{"teacher", "teacher123", "teacher@learnsmart.com", "Teacher User", models.RoleTeacher},
	{"student", "student123", "student@learnsmart.com", "Alex Johnson", models.RoleStudent},
}

var demoCourses = []seedCourse{
	{
		title:       "Modern JavaScript Fundamentals",
		description: "Master the essential concepts of JavaScript with practical examples and real-world applications.",
		imageURL:    "https://images.unsplash.com/photo-1517694712202-14dd9538aa97?auto=format&fit=crop&w=600&h=200&q=80",
		category:    "Web Development",
		level:       "Beginner",
		duration:    8,
		points:      350,
		progress:    68,
		modules: []seedModule{
			{
				title:       "JavaScript Basics",
				description: "Learn the fundamentals of JavaScript programming",
				lessons: []seedLesson{
					{"Introduction to JavaScript", "JavaScript is a programming language that runs in the browser...", 15, 10},
					{"Variables and Data Types", "Learn about variables, constants, and data types in JavaScript...", 20, 15},
				},
			},
			{title: "Working with DOM", description: "Manipulate HTML elements using JavaScript"},
		},
	},
	{
		title:       "Python for Data Analysis",
		description: "Learn how to analyze and visualize data using Python's powerful libraries like Pandas and Matplotlib.",
		imageURL:    "https://images.unsplash.com/photo-1581093199663-68c6a521388d?auto=format&fit=crop&w=600&h=200&q=80",
		category:    "Data Science",
		level:       "Intermediate",
		duration:    10,
		points:      450,
		progress:    42,
		modules: []seedModule{
			{
				title:       "Python Basics",
				description: "Introduction to Python programming language",
				lessons: []seedLesson{
					{"Getting Started with Python", "Python is a versatile programming language...", 25, 20},
				},
			},
		},
	},
	{
		title:       "UI/UX Design Principles",
		description: "Discover the fundamentals of creating user-centered designs that engage and delight your audience.",
		imageURL:    "https://images.unsplash.com/photo-1551288049-bebda4e38f71?auto=format&fit=crop&w=600&h=200&q=80",
		category:    "UX Design",
		level:       "Beginner",
		duration:    6,
		points:      300,
		progress:    18,
	},
}

var demoAchievements = []models.Achievement{
	{
		Title:       models.FirstCourseAchievement,
		Description: "Complete your first course",
		Criteria:    models.Criteria{"type": "course_completion", "count": 1},
		Points:      50,
	},
	{
		Title:       "5-Day Streak",
		Description: "Log in for 5 consecutive days",
		Criteria:    models.Criteria{"type": "login_streak", "days": 5},
		Points:      25,
	},
	{
		Title:       "Quiz Master",
		Description: "Score 100% on 5 quizzes",
		Criteria:    models.Criteria{"type": "quiz_completion", "score": 100, "count": 5},
		Points:      75,
	},
}

var demoAchievementImages = []string{"course-complete-badge.svg", "streak-badge.svg", "quiz-badge.svg"}

// Seed populates the store unless it already holds users.
func (s *SeedService) Seed(ctx context.Context) error {
	existing, err := s.store.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("seed skipped, store not empty", zap.Int("users", len(existing)))
		return nil
	}

	now := time.Now().UTC()
	users := make(map[models.UserRole]*models.User, len(demoUsers))
	for _, u := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), s.cost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.username, err)
		}
		user := &models.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: string(hash),
			FullName:     u.fullName,
			Role:         u.role,
			CreatedAt:    now,
		}
		if err := s.store.Users.CreateUnique(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", u.username, err)
		}
		users[u.role] = user
	}

	teacher := users[models.RoleTeacher]
	student := users[models.RoleStudent]
	for _, c := range demoCourses {
		image := c.imageURL
		course := &models.Course{
			Title:       c.title,
			Slug:        slug.Make(c.title),
			Description: c.description,
			ImageURL:    &image,
			Category:    c.category,
			Level:       c.level,
			Duration:    c.duration,
			AuthorID:    teacher.ID,
			Points:      c.points,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Courses.Create(ctx, course); err != nil {
			return fmt.Errorf("create course %q: %w", c.title, err)
		}
		if err := s.seedModules(ctx, course.ID, c.modules); err != nil {
			return err
		}

		enrollment := &models.Enrollment{UserID: student.ID, CourseID: course.ID, EnrolledAt: now}
		if _, err := s.store.Enrollments.CreateIfAbsent(ctx, enrollment); err != nil {
			return fmt.Errorf("enroll demo student: %w", err)
		}
		if err := s.store.Enrollments.SetProgress(ctx, enrollment.ID, c.progress); err != nil {
			return fmt.Errorf("set demo progress: %w", err)
		}
	}

	for i, a := range demoAchievements {
		achievement := a
		image := demoAchievementImages[i]
		achievement.ImageURL = &image
		if err := s.store.Achievements.Create(ctx, &achievement); err != nil {
			return fmt.Errorf("create achievement %q: %w", a.Title, err)
		}
		// The demo student already holds the first two badges.
		if i < 2 {
			if _, _, err := s.store.Achievements.Grant(ctx, student.ID, achievement.ID, now); err != nil {
				return fmt.Errorf("grant demo achievement: %w", err)
			}
		}
	}

	points, streak := 1248, 5
	if _, err := s.store.Users.Update(ctx, student.ID, models.UserPatch{Points: &points, Streak: &streak}); err != nil {
		return fmt.Errorf("update demo student: %w", err)
	}

	s.logger.Info("demo data seeded",
		zap.Int("users", len(demoUsers)),
		zap.Int("courses", len(demoCourses)),
		zap.Int("achievements", len(demoAchievements)),
	)
	return nil
}

func (s *SeedService) seedModules(ctx context.Context, courseID int64, modules []seedModule) error {
	for mi, m := range modules {
		desc := m.description
		module := &models.Module{CourseID: courseID, Title: m.title, Description: &desc, Order: mi + 1}
		if err := s.store.Modules.Create(ctx, module); err != nil {
			return fmt.Errorf("create module %q: %w", m.title, err)
		}
		for li, l := range m.lessons {
			content := l.content
			lesson := &models.Lesson{
				ModuleID: module.ID,
				Title:    l.title,
				Content:  &content,
				Type:     models.LessonText,
				Duration: l.duration,
				Order:    li + 1,
				Points:   l.points,
			}
			if err := s.store.Lessons.Create(ctx, lesson); err != nil {
				return fmt.Errorf("create lesson %q: %w", l.title, err)
			}
		}
	}
	return nil
}
