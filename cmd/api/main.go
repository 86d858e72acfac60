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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/deens-academy/timetable-api/api/swagger"
	"github.com/deens-academy/timetable-api/internal/handler"
	"github.com/deens-academy/timetable-api/internal/middleware"
	"github.com/deens-academy/timetable-api/internal/models"
	"github.com/deens-academy/timetable-api/internal/repository"
	"github.com/deens-academy/timetable-api/internal/service"
	"github.com/deens-academy/timetable-api/pkg/cache"
	"github.com/deens-academy/timetable-api/pkg/config"
	"github.com/deens-academy/timetable-api/pkg/database"
	"github.com/deens-academy/timetable-api/pkg/jobs"
	"github.com/deens-academy/timetable-api/pkg/logger"
	"github.com/deens-academy/timetable-api/pkg/mail"
	corsmiddleware "github.com/deens-academy/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/deens-academy/timetable-api/pkg/middleware/requestid"
)

// @title Deens Academy Timetable API
// @version 1.0.0
// @description Class timetable management for teachers and students
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()
	denylist := cache.NewTokenDenylist(redisClient)

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(accountRepo, teacherRepo, denylist, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetable-api",
	})
	teacherSvc := service.NewTeacherService(teacherRepo, accountRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, subjectRepo, notificationRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, teacherRepo, cfg.Registration, logr)
	sender := mail.NewSender(cfg.Mail, logr)
	notifierSvc := service.NewNotifierService(notificationRepo, registrationRepo, sender, metricsSvc, cfg.Mail, cfg.Notifications.SendDelay, logr)
	exportSvc := service.NewExportService(timetableSvc)

	// One worker so drains never overlap.
	drainQueue := jobs.NewQueue("notification-drain", func(ctx context.Context, job jobs.Job) error {
		result, err := notifierSvc.Drain(ctx)
		if err != nil {
			return err
		}
		if result.Processed > 0 {
			logr.Sugar().Infow("notification drain finished",
				"trigger", job.Type, "processed", result.Processed, "sent", result.Sent)
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, BufferSize: 16, Logger: logr})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	drainQueue.Start(rootCtx)
	defer drainQueue.Stop()

	if cfg.Notifications.DrainInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Notifications.DrainInterval)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if err := drainQueue.Enqueue(jobs.Job{Type: "scheduled"}); err != nil {
						logr.Sugar().Warnw("failed to enqueue scheduled drain", "error", err)
					}
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc, teacherSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, teacherSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, studentSvc)
	notificationHandler := handler.NewNotificationHandler(notifierSvc, teacherSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register/teacher", authHandler.RegisterTeacher)
	auth.POST("/register/student", authHandler.RegisterStudent)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	teacherOnly := api.Group("")
	teacherOnly.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTeacher))
	teacherOnly.GET("/teachers/me", teacherHandler.Me)
	teacherOnly.DELETE("/teachers/me", teacherHandler.Unregister)
	teacherOnly.GET("/subjects", subjectHandler.List)
	teacherOnly.POST("/subjects", subjectHandler.Create)
	teacherOnly.DELETE("/subjects/:id", subjectHandler.Delete)
	teacherOnly.GET("/timetable", timetableHandler.GetOwn)
	teacherOnly.PUT("/timetable", timetableHandler.BulkSave)
	teacherOnly.PUT("/timetable/cell", timetableHandler.SetCell)
	teacherOnly.DELETE("/timetable/cell", timetableHandler.ClearCell)
	teacherOnly.GET("/notifications/changes", notificationHandler.ListChanges)
	teacherOnly.GET("/notifications/pending", notificationHandler.ListPending)
	teacherOnly.POST("/notifications/drain", notificationHandler.Drain)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/classes", registrationHandler.ListClasses)
	authed.GET("/classes/:section/timetable", timetableHandler.GetBySection)
	authed.GET("/classes/:section/timetable/export", exportHandler.Timetable)

	studentOnly := api.Group("")
	studentOnly.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	studentOnly.GET("/registrations", registrationHandler.List)
	studentOnly.POST("/registrations", registrationHandler.Register)
	studentOnly.DELETE("/registrations/:section", registrationHandler.Unregister)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
