package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/quiz-service/internal/auth"
	"github.com/quizdeck/quiz-service/internal/cache"
	"github.com/quizdeck/quiz-service/internal/config"
	"github.com/quizdeck/quiz-service/internal/events"
	"github.com/quizdeck/quiz-service/internal/handlers"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/realtime"
	"github.com/quizdeck/quiz-service/internal/repositories/postgres"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
	"github.com/quizdeck/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var slogger *slog.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		slogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	} else {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	logger := utils.NewSlogLogger(slogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.CompanyMember{},
		&models.Quiz{},
		&models.Question{},
		&models.Answer{},
		&models.QuizAttempt{},
		&models.Notification{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	bus := events.NewBus(slogger)
	defer bus.Close()

	mirror, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer mirror.Close()

	sink := &mirroredSink{bus: bus, mirror: mirror, logger: logger}

	hub := realtime.NewHub(logger)
	repo := postgres.NewRepository(db)
	responseStore := cache.NewResponseStore(redisClient, logger)
	validator := utils.NewValidator()
	verifier := auth.NewCasdoorVerifier(cfg.Casdoor)

	notificationService := services.NewNotificationService(repo, hub, logger)
	quizService := services.NewQuizService(repo, sink, logger, validator)

	svc := handlers.Services{
		Quiz:         quizService,
		Attempt:      services.NewAttemptService(repo, responseStore, sink, logger, validator),
		Analytics:    services.NewAnalyticsService(repo, logger),
		Notification: notificationService,
		Export:       services.NewExportService(repo, responseStore, logger),
		Import:       services.NewImportService(quizService, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := services.NewDispatcher(bus, notificationService, logger)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Dispatcher stopped", "error", err)
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	manager := handlers.NewHandlerManager(svc, hub, verifier, validator, logger)
	manager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

// mirroredSink routes events onto the in-process bus and best-effort copies
// them to the external publisher. The mirror never fails a publish.
type mirroredSink struct {
	bus    *events.Bus
	mirror events.EventPublisher
	logger utils.Logger
}

func (s *mirroredSink) Publish(event *events.Event) error {
	if err := s.bus.Publish(event); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mirror.PublishEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Event mirror publish failed", "event_id", event.ID)
	}
	return nil
}
