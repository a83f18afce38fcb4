package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnsmart-api/internal/dto"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	"github.com/noah-isme/learnsmart-api/internal/service"
	"github.com/noah-isme/learnsmart-api/pkg/jobs"
	"github.com/noah-isme/learnsmart-api/pkg/storage"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func (a apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a apiClient) decode(rec *httptest.ResponseRecorder, dest interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func newTestAPI(t *testing.T) (apiClient, *repository.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := repository.NewMemoryStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users.CreateUnique(ctx, &models.User{
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: string(hash),
		FullName:     "Root Admin",
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}))

	metrics := service.NewMetricsService()
	auth := service.NewAuthService(store.Users, nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "learnsmart-test",
		BcryptCost:        bcrypt.MinCost,
	})

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exporter := service.NewExportService(store, files, storage.NewSignedURLSigner("signing", time.Hour), nil, service.ExportConfig{APIPrefix: "/api"}, nil)
	worker := service.NewTranscriptWorker(store.ExportJobs, exporter, metrics, nil)
	queue := jobs.NewQueue("transcripts", worker.Handle, jobs.QueueConfig{Workers: 1, BufferSize: 8, OnFailure: worker.MarkFailed})
	queue.Start(ctx)
	t.Cleanup(queue.Stop)

	router := NewRouter(RouterConfig{
		APIPrefix:    "/api",
		Logger:       zap.NewNop(),
		Auth:         auth,
		Users:        service.NewUserService(store.Users, nil, nil, nil),
		Courses:      service.NewCourseService(store, nil, nil, nil),
		Modules:      service.NewModuleService(store, nil, nil),
		Lessons:      service.NewLessonService(store, nil, nil),
		Enrollments:  service.NewEnrollmentService(store, nil, nil),
		Progress:     service.NewProgressService(store, nil, metrics, nil, nil, service.ProgressConfig{}),
		Achievements: service.NewAchievementService(store, nil, nil),
		Certificates: service.NewCertificateService(store, nil),
		Transcripts:  service.NewTranscriptService(store.ExportJobs, queue, exporter, nil, nil, service.TranscriptServiceConfig{Enabled: true}),
		Metrics:      metrics,
	})
	return apiClient{t: t, router: router}, store
}

func (a apiClient) register(username string, role models.UserRole) models.AuthResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Role:     role,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var res models.AuthResponse
	a.decode(rec, &res)
	return res
}

func (a apiClient) login(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: username, Password: password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.AuthResponse
	a.decode(rec, &res)
	return res.AccessToken
}

func TestRouterLearnerJourney(t *testing.T) {
	api, _ := newTestAPI(t)
	adminToken := api.login("root", "admin-pass")

	rec := api.do(http.MethodPost, "/api/admin/achievements", adminToken, dto.AchievementRequest{
		Title:       models.FirstCourseAchievement,
		Description: "Complete your first course",
		Points:      50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	teacher := api.register("teacher", models.RoleTeacher)
	rec = api.do(http.MethodPost, "/api/courses", teacher.AccessToken, dto.CreateCourseRequest{
		Title:       "Go Basics",
		Description: "Intro to Go",
		Category:    "Programming",
		Level:       "Beginner",
		Duration:    3,
		Points:      100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var course models.Course
	api.decode(rec, &course)
	assert.Equal(t, "go-basics", course.Slug)

	rec = api.do(http.MethodPost, "/api/modules", teacher.AccessToken, dto.CreateModuleRequest{CourseID: course.ID, Title: "Start", Order: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var module models.Module
	api.decode(rec, &module)

	var lessonIDs []int64
	for i, pts := range []int{10, 15} {
		rec = api.do(http.MethodPost, "/api/lessons", teacher.AccessToken, dto.CreateLessonRequest{
			ModuleID: module.ID,
			Title:    fmt.Sprintf("Lesson %d", i+1),
			Type:     models.LessonText,
			Order:    i + 1,
			Points:   pts,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var lesson models.Lesson
		api.decode(rec, &lesson)
		lessonIDs = append(lessonIDs, lesson.ID)
	}

	student := api.register("student", "")
	assert.Equal(t, models.RoleStudent, student.Role)
	token := student.AccessToken

	rec = api.do(http.MethodPost, "/api/courses", token, dto.CreateCourseRequest{Title: "Nope", Description: "x", Category: "x", Level: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/enrollments", token, dto.EnrollRequest{CourseID: course.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/enrollments", token, dto.EnrollRequest{CourseID: course.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Already enrolled in this course"}`, rec.Body.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail models.CourseDetail
	api.decode(rec, &detail)
	assert.True(t, detail.IsEnrolled)
	require.Len(t, detail.Modules, 1)
	assert.Len(t, detail.Modules[0].Lessons, 2)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), "", nil)
	api.decode(rec, &detail)
	assert.False(t, detail.IsEnrolled)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/certificates/%d", course.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, id := range lessonIDs {
		rec = api.do(http.MethodPost, "/api/progress", token, dto.CompleteLessonRequest{LessonID: id})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = api.do(http.MethodPost, "/api/progress", token, dto.CompleteLessonRequest{LessonID: lessonIDs[0]})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/progress/lesson/%d", lessonIDs[1]), token, nil)
	assert.JSONEq(t, `{"completed":true}`, rec.Body.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/enrollments/course/%d", course.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrollment models.Enrollment
	api.decode(rec, &enrollment)
	assert.Equal(t, 100, enrollment.Progress)
	assert.True(t, enrollment.Completed)

	rec = api.do(http.MethodGet, "/api/auth/me", token, nil)
	var me models.UserProfile
	api.decode(rec, &me)
	assert.Equal(t, 10+15+100+50, me.Points)

	rec = api.do(http.MethodGet, "/api/achievements/me", token, nil)
	var unlocked []models.UserAchievementWithDetails
	api.decode(rec, &unlocked)
	assert.Len(t, unlocked, 1)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/certificates/%d", course.ID), token, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/certificates/%d", course.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/exports/transcript", token, dto.TranscriptExportRequest{Format: models.ExportFormatCSV})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var job dto.ExportJobResponse
	api.decode(rec, &job)

	var status dto.ExportStatusResponse
	require.Eventually(t, func() bool {
		rec := api.do(http.MethodGet, "/api/exports/"+job.ID, token, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		api.decode(rec, &status)
		return status.Status == models.ExportStatusFinished
	}, 5*time.Second, 20*time.Millisecond)
	require.NotNil(t, status.ResultURL)

	rec = api.do(http.MethodGet, *status.ResultURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Go Basics")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), job.ID+".csv")

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/courses/%d", course.ID), teacher.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/certificates/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var certs []models.CertificateWithCourse
	api.decode(rec, &certs)
	require.Len(t, certs, 1)
	assert.Equal(t, course.ID, certs[0].CourseID)
	assert.Nil(t, certs[0].Course)

	rec = api.do(http.MethodGet, "/api/enrollments/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrollments []models.EnrollmentWithCourse
	api.decode(rec, &enrollments)
	require.Len(t, enrollments, 1)
	assert.True(t, enrollments[0].Completed)

	rec = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
	rec = api.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterAdminSurface(t *testing.T) {
	api, _ := newTestAPI(t)
	student := api.register("student", models.RoleStudent)

	rec := api.do(http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/admin/users", student.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := api.login("root", "admin-pass")
	rec = api.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.UserProfile
	api.decode(rec, &users)
	assert.Len(t, users, 2)

	points := 500
	rec = api.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d", student.ID), adminToken, dto.UpdateUserRequest{Points: &points})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile models.UserProfile
	api.decode(rec, &profile)
	assert.Equal(t, 500, profile.Points)

	rec = api.do(http.MethodPut, "/api/admin/users/abc", adminToken, dto.UpdateUserRequest{Points: &points})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterRoleChangeAppliesToIssuedTokens(t *testing.T) {
	api, _ := newTestAPI(t)
	teacher := api.register("teacher", models.RoleTeacher)
	course := dto.CreateCourseRequest{Title: "Go Basics", Description: "x", Category: "x", Level: "x"}

	rec := api.do(http.MethodPost, "/api/courses", teacher.AccessToken, course)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	adminToken := api.login("root", "admin-pass")
	student := models.RoleStudent
	rec = api.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d", teacher.ID), adminToken, dto.UpdateUserRequest{Role: &student})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	course.Title = "Go Advanced"
	rec = api.do(http.MethodPost, "/api/courses", teacher.AccessToken, course)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/api/auth/me", teacher.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.UserProfile
	api.decode(rec, &me)
	assert.Equal(t, models.RoleStudent, me.Role)
}

func TestRouterAuthFailures(t *testing.T) {
	api, _ := newTestAPI(t)
	api.register("student", models.RoleStudent)

	rec := api.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "student", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "mallory",
		Email:    "mallory@example.com",
		Password: "secret123",
		FullName: "Mallory",
		Role:     models.RoleAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/enrollments/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}

func TestRouterOpsEndpoints(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	api.do(http.MethodGet, "/api/courses", "", nil)
	rec = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/courses")
}
