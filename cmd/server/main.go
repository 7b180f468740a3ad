// @title         interview-service API
// @version       1.0
// @description   Scripted VC interview service: sessions, CV-personalized questions, response scoring and aggregate feedback.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "github.com/artem13815/interview/docs"

	// internal imports
	httpapi "github.com/artem13815/interview/api/http"
	"github.com/artem13815/interview/api/http/handlers"
	"github.com/artem13815/interview/pkg/config"
	"github.com/artem13815/interview/pkg/health"
	"github.com/artem13815/interview/pkg/health/checkers"
	"github.com/artem13815/interview/pkg/interview"
	"github.com/artem13815/interview/pkg/llm/openrouter"
	"github.com/artem13815/interview/pkg/logger"
	filerepo "github.com/artem13815/interview/pkg/repository/file"
	pgrepo "github.com/artem13815/interview/pkg/repository/postgres"
	"github.com/artem13815/interview/pkg/speech/googlecloud"
	"github.com/artem13815/interview/pkg/storage/postgres"
)

func main() {
	app := fiber.New()

	// Load configuration from env/.env
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	// File store is always needed for uploaded media; it doubles as the
	// session repository unless Postgres is configured.
	fileStore, err := filerepo.NewSessionRepository(cfg.SessionsDir)
	if err != nil {
		zlog.Fatal("init file store", zap.Error(err))
	}

	var repo interview.SessionRepository = fileStore
	var readiness health.ReadinessUseCase
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			zlog.Fatal("postgres connect", zap.Error(err))
		}
		defer pool.Close()

		pgStore, err := pgrepo.NewSessionRepository(pool)
		if err != nil {
			zlog.Fatal("init session repo", zap.Error(err))
		}
		repo = pgStore
		readiness = health.NewService(checkers.NewPostgresChecker(pool))
	} else {
		readiness = health.NewService(checkers.NewSessionsDirChecker(cfg.SessionsDir))
	}

	// Generative-text collaborator; every consumer degrades to fixed
	// fallback content when it is unavailable.
	llmClient := openrouter.New(
		cfg.OpenRouterAPIKey,
		cfg.OpenRouterBase,
		cfg.OpenRouterModel,
		cfg.OpenRouterAppTitle,
		cfg.OpenRouterReferer,
	)

	speechClient := googlecloud.New(cfg.GoogleAPIKey, cfg.SpeechAPIBase, cfg.TTSAPIBase)

	standard, err := interview.LoadStandardQuestions(cfg.QuestionsCSVPath)
	if err != nil {
		zlog.Warn("standard questions: using built-in fallback", zap.Error(err))
	}

	svc := interview.NewService(
		zlog,
		repo,
		fileStore,
		speechClient,
		interview.NewCVQuestionGenerator(llmClient),
		interview.NewFeedbackAggregator(llmClient),
		standard,
	)

	sessionHandler := handlers.NewSessionHandler(svc)
	speechHandler := handlers.NewSpeechHandler(speechClient, speechClient)
	healthHandler := handlers.NewHealthHandler(readiness)

	// Register routes
	httpapi.Register(app, sessionHandler, speechHandler, healthHandler)

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Periodic expiry of stale sessions
	go func() {
		interval := time.Duration(cfg.CleanupIntervalMinutes) * time.Minute
		for range time.Tick(interval) {
			n := svc.ExpireSessions(cfg.SessionMaxAgeHours)
			zlog.Debug("session sweep finished", zap.Int("removed", n))
		}
	}()

	// Start server
	zlog.Info("HTTP server listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
