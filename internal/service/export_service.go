package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/repository"
	"github.com/noah-isme/learnsmart-api/pkg/export"
	"github.com/noah-isme/learnsmart-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds learner transcripts and persists the rendered files.
type ExportService struct {
	users        repository.UserStore
	courses      repository.CourseStore
	enrollments  repository.EnrollmentStore
	achievements repository.AchievementStore
	storage      fileStorage
	renderers    export.Registry
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService. A nil registry uses the
// default CSV and PDF renderers.
func NewExportService(store *repository.Store, files fileStorage, signer *storage.SignedURLSigner, renderers export.Registry, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if renderers == nil {
		renderers = export.NewRegistry()
	}
	return &ExportService{
		users:        store.Users,
		courses:      store.Courses,
		enrollments:  store.Enrollments,
		achievements: store.Achievements,
		storage:      files,
		renderers:    renderers,
		signer:       signer,
		logger:       logger,
		cfg:          cfg,
	}
}

// Generate renders the job owner's transcript and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, err := s.renderers.Get(export.Format(job.Format))
	if err != nil {
		return nil, err
	}
	table, err := s.buildTranscript(ctx, job.UserID)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(table)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than the result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// ContentType reports the MIME type served for format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	renderer, err := s.renderers.Get(export.Format(format))
	if err != nil {
		return "application/octet-stream"
	}
	return renderer.ContentType()
}

func (s *ExportService) buildTranscript(ctx context.Context, userID int64) (export.Table, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return export.Table{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return export.Table{}, fmt.Errorf("list enrollments: %w", err)
	}
	unlocked, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return export.Table{}, fmt.Errorf("list achievements: %w", err)
	}

	table := export.Table{
		Title:   fmt.Sprintf("Transcript - %s", user.FullName),
		Columns: []string{"Course", "Category", "Level", "Enrolled", "Progress", "Completed", "Completed At", "Certificate"},
	}
	completedCount := 0
	for _, e := range enrollments {
		title := fmt.Sprintf("course #%d", e.CourseID)
		var category, level string
		course, err := s.courses.FindByID(ctx, e.CourseID)
		switch {
		case err == nil:
			title, category, level = course.Title, course.Category, course.Level
		case !errors.Is(err, sql.ErrNoRows):
			return export.Table{}, fmt.Errorf("load course %d: %w", e.CourseID, err)
		}
		completedAt := ""
		if e.CompletedAt != nil {
			completedAt = e.CompletedAt.Format(time.RFC3339)
		}
		if e.Completed {
			completedCount++
		}
		table.Rows = append(table.Rows, []string{
			title,
			category,
			level,
			e.EnrolledAt.Format("2006-01-02"),
			strconv.Itoa(e.Progress) + "%",
			yesNo(e.Completed),
			completedAt,
			yesNo(e.CertificateIssued),
		})
	}
	table.Summary = []string{
		fmt.Sprintf("Learner: %s (%s)", user.FullName, user.Username),
		fmt.Sprintf("Points: %d", user.Points),
		fmt.Sprintf("Courses completed: %d of %d", completedCount, len(enrollments)),
		fmt.Sprintf("Achievements unlocked: %d", len(unlocked)),
		fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)),
	}
	return table, nil
}

func buildFilename(job *models.ExportJob) string {
	return fmt.Sprintf("transcripts/%d/%s.%s", job.UserID, job.ID, job.Format)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
