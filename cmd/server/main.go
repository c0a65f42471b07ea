package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/roboadvisor/internal/advisor"
	"github.com/aristath/roboadvisor/internal/clients/gemini"
	"github.com/aristath/roboadvisor/internal/config"
	"github.com/aristath/roboadvisor/internal/database"
	"github.com/aristath/roboadvisor/internal/modules/allocation"
	"github.com/aristath/roboadvisor/internal/modules/marketdata"
	"github.com/aristath/roboadvisor/internal/modules/portfolio"
	"github.com/aristath/roboadvisor/internal/modules/risk"
	"github.com/aristath/roboadvisor/internal/modules/signals"
	"github.com/aristath/roboadvisor/internal/modules/universe"
	"github.com/aristath/roboadvisor/internal/scheduler"
	"github.com/aristath/roboadvisor/internal/server"
	"github.com/aristath/roboadvisor/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Roboadvisor")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	priceRepo := marketdata.NewPriceRepository(db.Conn(), log)
	newsRepo := marketdata.NewNewsRepository(db.Conn(), log)
	universeRepo := universe.NewRepository(db.Conn(), log)
	positionRepo := portfolio.NewRepository(db.Conn(), log)
	scoreRepo := risk.NewScoreRepository(db.Conn(), log)
	profileRepo := allocation.NewProfileRepository(db.Conn(), log)
	recommendationRepo := signals.NewRecommendationRepository(db.Conn(), log)
	tradeRepo := signals.NewPaperTradeRepository(db.Conn(), log)

	// Risk scoring
	analyzer := risk.NewAnalyzer(log)
	riskService := risk.NewService(analyzer, priceRepo, newsRepo, positionRepo, scoreRepo, cfg.BenchmarkSymbol, log)

	// Allocation
	optimizer := allocation.NewOptimizer(profileRepo, universeRepo, positionRepo, priceRepo, riskService, log)

	// Advisor backend; signals degrade to the fallback without one
	var adv advisor.Advisor
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
		}
		adv = client
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, signals will use the neutral fallback")
	}

	generator := signals.NewGenerator(adv, riskService, priceRepo, newsRepo, positionRepo, recommendationRepo, tradeRepo, log)

	// Scheduler and background jobs
	sched := scheduler.New(log)

	// Daily risk refresh after US market close (21:30 UTC)
	riskJob := scheduler.NewRiskRefreshJob(riskService, positionRepo, log)
	if err := sched.AddJob("0 30 21 * * MON-FRI", riskJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register risk refresh job")
	}

	// Hourly sweep of overdue recommendations
	expiryJob := scheduler.NewRecommendationExpiryJob(generator, positionRepo, log)
	if err := sched.AddJob("@hourly", expiryJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register recommendation expiry job")
	}

	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DB:        db,
		Config:    cfg,
		DevMode:   cfg.DevMode,
		Risk:      riskService,
		Optimizer: optimizer,
		Generator: generator,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
