package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/config"
	"github.com/estimateai/plancost-engine/pkg/database"
	"github.com/estimateai/plancost-engine/pkg/handlers"
	"github.com/estimateai/plancost-engine/pkg/logging"
	"github.com/estimateai/plancost-engine/pkg/middleware"
	"github.com/estimateai/plancost-engine/pkg/repositories"
	"github.com/estimateai/plancost-engine/pkg/services"
	"github.com/estimateai/plancost-engine/pkg/takeoff"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("openai_enabled", cfg.OpenAI.IsAvailable()),
		zap.Bool("anthropic_enabled", cfg.Anthropic.IsAvailable()))

	ctx := context.Background()

	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	projectRepo := repositories.NewProjectRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	measurementRepo := repositories.NewMeasurementRepository(db)
	selectionRepo := repositories.NewSelectionRepository(db)
	estimateRepo := repositories.NewEstimateRepository(db)

	// Extraction sources; only configured providers join the pipeline. The
	// same providers back the estimator Q&A endpoint.
	var sources []takeoff.Source
	var answerers []takeoff.Answerer
	if cfg.OpenAI.IsAvailable() {
		src, err := takeoff.NewOpenAISource(&takeoff.OpenAIConfig{
			APIKey:   cfg.OpenAI.APIKey,
			Model:    cfg.OpenAI.Model,
			Endpoint: cfg.OpenAI.Endpoint,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create OpenAI source", zap.Error(err))
		}
		sources = append(sources, src)
		answerers = append(answerers, src)
	}
	if cfg.Anthropic.IsAvailable() {
		src, err := takeoff.NewAnthropicSource(&takeoff.AnthropicConfig{
			APIKey: cfg.Anthropic.APIKey,
			Model:  cfg.Anthropic.Model,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create Anthropic source", zap.Error(err))
		}
		sources = append(sources, src)
		answerers = append(answerers, src)
	}
	if len(sources) == 0 {
		logger.Warn("No extraction sources configured; plan analysis is disabled")
	}

	// Services
	pool := takeoff.NewPool(takeoff.PoolConfig{}, logger)
	reconciler := services.NewReconciler(logger)
	takeoffService := services.NewTakeoffService(sources, pool, reconciler, logger)
	projectService := services.NewProjectService(projectRepo, catalogRepo, measurementRepo, takeoffService, logger)
	selectionService := services.NewSelectionService(selectionRepo, catalogRepo, logger)
	assistantService := services.NewAssistantService(answerers, logger)

	resolver := services.NewQuantityResolver()
	rollup := services.NewCostRollupEngine(resolver, logger)
	aggregator := services.NewEstimateAggregator()
	estimateService := services.NewEstimateService(
		projectRepo, selectionRepo, measurementRepo, catalogRepo, estimateRepo,
		rollup, aggregator,
		cfg.Estimate.OverheadPct, cfg.Estimate.ProfitPct,
		logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(mux)
	handlers.NewSelectionsHandler(selectionService, logger).RegisterRoutes(mux)
	handlers.NewEstimatesHandler(estimateService, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(assistantService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(middleware.Recoverer(logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting plancost-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
