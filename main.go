package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/audit"
	"github.com/loopwell/feedback-engine/pkg/config"
	"github.com/loopwell/feedback-engine/pkg/database"
	"github.com/loopwell/feedback-engine/pkg/llm"
	"github.com/loopwell/feedback-engine/pkg/logging"
	"github.com/loopwell/feedback-engine/pkg/pipeline"
	"github.com/loopwell/feedback-engine/pkg/repositories"
	"github.com/loopwell/feedback-engine/pkg/retry"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	runOnce := flag.Bool("once", false, "run a single scheduler pass and exit")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting feedback-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("llm_endpoint", cfg.LLM.Endpoint),
		zap.String("llm_model", cfg.LLM.Model))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint:       cfg.LLM.Endpoint,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		APIKey:         cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	rawRepo := repositories.NewRawFeedbackRepository()
	itemRepo := repositories.NewRawFeedbackItemRepository()
	featureRepo := repositories.NewFeatureRepository()
	feedbackRepo := repositories.NewFeedbackRepository()

	stages := []pipeline.Stage{
		{Name: "safety-check", Handler: pipeline.NewSafetyCheckHandler(rawRepo, llmClient, audit.NewAuditor(logger), logger)},
		{Name: "splitting", Handler: pipeline.NewSplitterHandler(rawRepo, itemRepo, llmClient, logger)},
		{Name: "sentiment-check", Handler: pipeline.NewSentimentCheckHandler(itemRepo, llmClient, logger)},
		{Name: "feature-association", Handler: pipeline.NewFeatureAssociationHandler(
			itemRepo, rawRepo, featureRepo, feedbackRepo, llmClient,
			cfg.Pipeline.AgentUserID, cfg.Pipeline.AgentMaxSteps, cfg.Pipeline.SearchTopK, logger)},
	}

	scheduler := pipeline.NewScheduler(db.Pool, stages, pipeline.SchedulerConfig{
		StageDeadline: cfg.Pipeline.StageDeadline,
		IdleInterval:  cfg.Pipeline.IdleInterval,
	}, logger)

	if *runOnce {
		worked := scheduler.RunOnce(ctx)
		logger.Info("Single pass finished", zap.Bool("worked", worked))
		return
	}

	if err := scheduler.Run(ctx); err != nil {
		logger.Fatal("Scheduler failed", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	// golang-migrate needs a database/sql handle
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Ride out the database still starting up.
	return retry.Do(context.Background(), nil, func() error {
		return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
	})
}
