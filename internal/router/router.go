package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/handler"
	"github.com/noah-isme/student-affairs-api/internal/middleware"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/internal/service"
	"github.com/noah-isme/student-affairs-api/pkg/config"
	"github.com/noah-isme/student-affairs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-affairs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-affairs-api/pkg/middleware/requestid"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	LeaveHandler      *handler.LeaveHandler
	PublicHandler     *handler.PublicHandler
	SecurityHandler   *handler.SecurityHandler
	EnrollmentHandler *handler.EnrollmentHandler
	SettingsHandler   *handler.SettingsHandler
	MetricsHandler    *handler.MetricsHandler
	Metrics           *service.MetricsService
	Tokens            middleware.TokenValidator
	Audit             middleware.AuditWriter
	Users             middleware.UserResolver
	Logger            *zap.Logger
}

// New builds the gin engine with the shared middleware stack and every route.
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	Register(r, cfg, deps)
	return r
}

// Register wires the HTTP routes into the engine.
func Register(r *gin.Engine, cfg *config.Config, deps Dependencies) {
	if deps.MetricsHandler != nil {
		r.GET("/health", deps.MetricsHandler.Health)
		r.GET("/ready", deps.MetricsHandler.Ready)
		r.GET("/metrics", deps.MetricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	auth := middleware.JWT(deps.Tokens)

	students := middleware.RequireRoles(models.RoleStudent)
	mentors := middleware.RequireRoles(models.RoleMentor, models.RoleFaculty, models.RoleHOD)
	guards := middleware.RequireRoles(models.RoleSecurity)

	// Emailed links carry their own credential.
	if deps.PublicHandler != nil {
		api.GET("/leaves/parent-view/:token", deps.PublicHandler.ParentView)
		api.POST("/leaves/parent-action/:token", deps.PublicHandler.ParentAction)
		api.GET("/passes/:token", deps.PublicHandler.PassByLink)
	}

	if deps.LeaveHandler != nil {
		leaves := api.Group("/leaves", auth)
		leaves.POST("/apply", students, deps.LeaveHandler.Apply)
		leaves.GET("/student", students, deps.LeaveHandler.ListMine)
		leaves.PUT("/:id", students, deps.LeaveHandler.Update)
		leaves.DELETE("/:id", students, deps.LeaveHandler.Delete)

		leaves.GET("/mentor", mentors, deps.LeaveHandler.ListForMentor)
		leaves.POST("/mentor-action/:id", mentors, deps.LeaveHandler.MentorAction)
		leaves.POST("/:id/generate-otp", mentors, deps.LeaveHandler.GenerateOTP)
		leaves.POST("/:id/verify-otp", mentors, deps.LeaveHandler.VerifyOTP)

		leaves.GET("/:id/pass", deps.LeaveHandler.GatePass)
		leaves.POST("/:id/pass-link", deps.LeaveHandler.PassLink)
	}

	if deps.SecurityHandler != nil {
		security := api.Group("/leaves/security", auth, guards)
		security.GET("/active/:rollNumber", deps.SecurityHandler.ActiveLeave)
		if deps.Audit != nil {
			security.Use(middleware.Audit(deps.Audit, deps.Users, deps.Logger, models.AuditActionSecurityRequest, "security_gate", "rollNumber"))
		}
		security.POST("/roll/:rollNumber/exit", deps.SecurityHandler.Exit)
		security.POST("/roll/:rollNumber/entry", deps.SecurityHandler.Entry)
		security.POST("/:id/action", deps.SecurityHandler.Action)
	}

	if deps.EnrollmentHandler != nil {
		courses := api.Group("/courses", auth)
		courses.POST("/enroll", students, deps.EnrollmentHandler.Enroll)
		courses.GET("/enrollments/student", students, deps.EnrollmentHandler.ListMine)
		courses.GET("/sections/:id/enrollments", middleware.RequireRoles(models.RoleFaculty, models.RoleMentor, models.RoleHOD), deps.EnrollmentHandler.ListSection)
	}

	if deps.SettingsHandler != nil {
		settings := api.Group("/settings", auth, middleware.RequireRoles(models.RoleAdmin))
		settings.GET("", deps.SettingsHandler.List)
		settings.GET("/:key", deps.SettingsHandler.Get)
		settings.PUT("/:key", deps.SettingsHandler.Update)
	}
}
