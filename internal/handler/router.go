package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/learnsmart-api/internal/middleware"
	"github.com/noah-isme/learnsmart-api/internal/models"
	"github.com/noah-isme/learnsmart-api/internal/service"
	"github.com/noah-isme/learnsmart-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/learnsmart-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/learnsmart-api/pkg/middleware/requestid"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger

	Auth         *service.AuthService
	Users        *service.UserService
	Courses      *service.CourseService
	Modules      *service.ModuleService
	Lessons      *service.LessonService
	Enrollments  *service.EnrollmentService
	Progress     *service.ProgressService
	Achievements *service.AchievementService
	Certificates *service.CertificateService
	Transcripts  *service.TranscriptService
	Metrics      *service.MetricsService
	ReadyChecks  map[string]Pinger
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logr := cfg.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	ops := NewMetricsHandler(cfg.Metrics, cfg.ReadyChecks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authRequired := middleware.JWT(cfg.Auth)
	authors := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(prefix)

	authHandler := NewAuthHandler(cfg.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authRequired, authHandler.Logout)
	auth.GET("/me", authRequired, authHandler.Me)

	courseHandler := NewCourseHandler(cfg.Courses)
	courses := api.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", middleware.OptionalJWT(cfg.Auth), courseHandler.Get)
	courses.POST("", authRequired, authors, middleware.Audit(logr, "create", "course"), courseHandler.Create)
	courses.PUT("/:id", authRequired, authors, middleware.Audit(logr, "update", "course"), courseHandler.Update)
	courses.DELETE("/:id", authRequired, authors, middleware.Audit(logr, "delete", "course"), courseHandler.Delete)

	content := NewContentHandler(cfg.Modules, cfg.Lessons)
	modules := api.Group("/modules", authRequired, authors)
	modules.POST("", middleware.Audit(logr, "create", "module"), content.CreateModule)
	modules.PUT("/:id", middleware.Audit(logr, "update", "module"), content.UpdateModule)
	modules.DELETE("/:id", middleware.Audit(logr, "delete", "module"), content.DeleteModule)

	lessons := api.Group("/lessons", authRequired, authors)
	lessons.POST("", middleware.Audit(logr, "create", "lesson"), content.CreateLesson)
	lessons.PUT("/:id", middleware.Audit(logr, "update", "lesson"), content.UpdateLesson)
	lessons.DELETE("/:id", middleware.Audit(logr, "delete", "lesson"), content.DeleteLesson)

	learning := NewLearningHandler(cfg.Enrollments, cfg.Progress, cfg.Certificates)
	enrollments := api.Group("/enrollments", authRequired)
	enrollments.POST("", learning.Enroll)
	enrollments.GET("/me", learning.MyEnrollments)
	enrollments.GET("/course/:courseId", learning.CourseEnrollment)

	progress := api.Group("/progress", authRequired)
	progress.POST("", learning.CompleteLesson)
	progress.GET("/lesson/:lessonId", learning.LessonStatus)

	certificates := api.Group("/certificates", authRequired)
	certificates.GET("/me", learning.MyCertificates)
	certificates.POST("/:courseId", learning.IssueCertificate)

	achievementHandler := NewAchievementHandler(cfg.Achievements)
	api.GET("/achievements", achievementHandler.List)
	api.GET("/achievements/me", authRequired, achievementHandler.Mine)

	admin := api.Group("/admin", authRequired, adminOnly)
	userHandler := NewUserHandler(cfg.Users)
	admin.GET("/users", userHandler.List)
	admin.PUT("/users/:id", middleware.Audit(logr, "update", "user"), userHandler.Update)
	admin.POST("/achievements", middleware.Audit(logr, "create", "achievement"), achievementHandler.Create)
	admin.PUT("/achievements/:id", middleware.Audit(logr, "update", "achievement"), achievementHandler.Update)
	admin.DELETE("/achievements/:id", middleware.Audit(logr, "delete", "achievement"), achievementHandler.Delete)

	exportHandler := NewExportHandler(cfg.Transcripts)
	exports := api.Group("/exports")
	exports.GET("/download/:token", exportHandler.Download)
	exports.POST("/transcript", authRequired, exportHandler.RequestTranscript)
	exports.GET("/:id", authRequired, exportHandler.Status)

	return r
}
