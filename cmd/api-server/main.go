package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-affairs-api/api/swagger"
	"github.com/noah-isme/student-affairs-api/internal/handler"
	"github.com/noah-isme/student-affairs-api/internal/models"
	"github.com/noah-isme/student-affairs-api/internal/repository"
	"github.com/noah-isme/student-affairs-api/internal/router"
	"github.com/noah-isme/student-affairs-api/internal/service"
	"github.com/noah-isme/student-affairs-api/pkg/cache"
	"github.com/noah-isme/student-affairs-api/pkg/config"
	"github.com/noah-isme/student-affairs-api/pkg/database"
	"github.com/noah-isme/student-affairs-api/pkg/events"
	"github.com/noah-isme/student-affairs-api/pkg/export"
	"github.com/noah-isme/student-affairs-api/pkg/jobs"
	"github.com/noah-isme/student-affairs-api/pkg/logger"
	"github.com/noah-isme/student-affairs-api/pkg/mailer"
	"github.com/noah-isme/student-affairs-api/pkg/signedurl"
	"github.com/noah-isme/student-affairs-api/pkg/token"
)

// @title Student Affairs API
// @version 1.0.0
// @description Leave approvals, security gate logging and course enrollment guard
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	publisher, closeEvents, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logr)
	if err != nil {
		logr.Fatal("failed to connect nats", zap.Error(err))
	}
	defer closeEvents()

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Settings.CacheTTL, logr, true)
	flags := service.NewFeatureFlagService(settingsRepo, cacheSvc, auditRepo, validate, logr, service.FeatureFlagConfig{
		Defaults: map[string]bool{
			models.FeatureLeave:        cfg.Leave.EnabledDefault,
			models.FeatureRegistration: cfg.Enrollment.RegistrationEnabledDefault,
		},
		CacheTTL: cfg.Settings.CacheTTL,
	}, service.WithFlagUsers(userRepo))

	smtpSender, err := mailer.NewSMTPSender(cfg.Mail)
	if err != nil {
		logr.Fatal("failed to configure mailer", zap.Error(err))
	}
	worker := service.NewNotificationWorker(smtpSender, logr)
	var notifications *service.NotificationService
	queue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			notifications.Exhausted(job, err)
		},
	})
	notifications = service.NewNotificationService(queue, metrics, logr)
	queue.Start(ctx)
	defer queue.Stop()

	location := cfg.Leave.Location()
	leaves := service.NewLeaveService(leaveRepo, userRepo, flags, token.NewIssuer(cfg.Leave.OTPLength, cfg.Leave.OTPBcryptCost), notifications, validate, logr,
		service.LeaveServiceConfig{
			ParentLinkBaseURL: cfg.Leave.ParentLinkBaseURL,
			OTPTTL:            cfg.Leave.OTPTTL,
			OTPDelivery:       cfg.Leave.OTPDelivery,
		},
		service.WithLeaveAudit(auditRepo),
		service.WithLeaveEvents(publisher),
		service.WithLeaveMetrics(metrics),
	)
	gate := service.NewSecurityGateService(leaveRepo, userRepo, location, logr,
		service.WithGateAudit(auditRepo),
		service.WithGateEvents(publisher),
		service.WithGateMetrics(metrics),
	)
	enrollments := service.NewEnrollmentService(enrollmentRepo, sectionRepo, userRepo, flags,
		service.NewEnrollmentPolicy(cfg.Enrollment.MaxChanges, cfg.Enrollment.FreezeWindow), validate, logr,
		service.WithEnrollmentAudit(auditRepo),
		service.WithEnrollmentEvents(publisher),
		service.WithEnrollmentMetrics(metrics),
	)

	passSecret := cfg.Leave.PassLinkSecret
	if passSecret == "" {
		passSecret = cfg.JWT.Secret
	}
	passes := service.NewLeavePassService(leaveRepo, userRepo, export.NewPDFExporter(), cfg.Leave.GatePassInstitution, location, logr,
		service.WithPassLinks(signedurl.New(passSecret, cfg.Leave.PassLinkTTL, nil), cfg.Leave.PublicBaseURL),
	)
	auth := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	engine := router.New(cfg, router.Dependencies{
		LeaveHandler:      handler.NewLeaveHandler(leaves, passes),
		PublicHandler:     handler.NewPublicHandler(leaves, passes),
		SecurityHandler:   handler.NewSecurityHandler(gate),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollments),
		SettingsHandler:   handler.NewSettingsHandler(flags),
		MetricsHandler:    handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
		Metrics:           metrics,
		Tokens:            auth,
		Audit:             auditRepo,
		Users:             userRepo,
		Logger:            logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	return map[string]handler.ReadinessCheck{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
