package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/config"
	"github.com/noah-isme/drumschool-api/internal/database"
	"github.com/noah-isme/drumschool-api/internal/handler"
	"github.com/noah-isme/drumschool-api/internal/middleware"
	"github.com/noah-isme/drumschool-api/internal/repository"
	"github.com/noah-isme/drumschool-api/internal/router"
	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/pkg/ai"
	cloud "github.com/noah-isme/drumschool-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to access database pool")
	}
	defer sqlDB.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Info().Msg("redis not configured, dashboard caching disabled")
	}

	var publisher service.MessagePublisher
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
		publisher = natsConn
	} else {
		logger.Info().Msg("nats not configured, session events disabled")
	}

	var storage service.FileStorage
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		store, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		storage = store
	} else {
		logger.Info().Msg("cloudinary not configured, avatar uploads disabled")
	}

	var completer ai.Completer
	if cfg.AIAPIKey != "" {
		client, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey:      cfg.AIAPIKey,
			BaseURL:     cfg.AIBaseURL,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: 0.4,
			Logger:      logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create ai client")
		}
		completer = client
	} else {
		logger.Info().Msg("ai api key not configured, summaries disabled")
	}

	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	kpiRepo := repository.NewKPIRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	events := service.NewSessionEventPublisher(publisher, cfg.NATSSubjectPrefix, logger)
	authService := service.NewAuthService(userRepo, validate, service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	}, logger)
	dashboards := service.NewDashboardCache(redisClient, cfg.DashboardCacheTTL, logger)
	categoryService := service.NewCategoryService(categoryRepo, validate, dashboards, logger)
	studentService := service.NewStudentService(studentRepo, validate, activityService, logger)
	sessionService := service.NewSessionService(sessionRepo, categoryRepo, studentRepo, userRepo, validate, activityService, dashboards, logger)
	attendanceService := service.NewAttendanceService(sessionRepo, attendanceRepo, validate, activityService, events, dashboards, logger)
	kpiService := service.NewKPIService(kpiRepo, studentRepo, categoryRepo, userRepo, validate, dashboards, logger)
	reportService := service.NewReportService(reportRepo, sessionRepo, validate, activityService, dashboards, logger)
	summaryService := service.NewSummaryService(reportRepo, studentRepo, completer, logger)
	exportService := service.NewExportService(sessionRepo, validate, logger)
	avatarService := service.NewAvatarService(storage, userRepo, cfg.UploadMaxMB, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.IsDevelopment(),
	})
	router.Register(app, cfg, router.Dependencies{
		CategoryHandler:  handler.NewCategoryHandler(categoryService, kpiService, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, kpiService, logger),
		SummaryHandler:   handler.NewSummaryHandler(summaryService, logger),
		SessionHandler:   handler.NewSessionHandler(sessionService, attendanceService, logger),
		ReportHandler:    handler.NewReportHandler(reportService, logger),
		DashboardHandler: handler.NewDashboardHandler(kpiService, exportService, logger),
		UserHandler:      handler.NewUserHandler(authService, avatarService, kpiService, logger),
		ActivityHandler:  handler.NewActivityHandler(activityService, logger),
		HealthCheck:      handler.HealthCheck(cfg, sqlDB),
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
		SummaryRateLimit: cfg.AIRateLimit,
		SummaryWindow:    cfg.AIRateWindow,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
