package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
)

func TestSeedServicePopulatesDemoData(t *testing.T) {
	store := repository.NewMemoryStore()
	seeder := NewSeedService(store, nil)
	seeder.cost = bcrypt.MinCost
	ctx := context.Background()

	require.NoError(t, seeder.Seed(ctx))

	student, err := store.Users.FindByUsername(ctx, "student")
	require.NoError(t, err)
	assert.Equal(t, 1248, student.Points)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("student123")))

	courses, err := store.Courses.List(ctx, models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 3)

	enrollments, err := store.Enrollments.ListByUser(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 3)
	assert.Equal(t, 68, enrollments[0].Progress)

	unlocked, err := store.Achievements.ListByUser(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, unlocked, 2)

	first, err := store.Achievements.FindByTitle(ctx, models.FirstCourseAchievement)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Points)
}

func TestSeedServiceSkipsNonEmptyStore(t *testing.T) {
	store := repository.NewMemoryStore()
	createUser(t, store, "existing", models.RoleAdmin)
	seeder := NewSeedService(store, nil)
	seeder.cost = bcrypt.MinCost

	require.NoError(t, seeder.Seed(context.Background()))

	users, err := store.Users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
