package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/clients/gemini"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/config"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/database"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/ingestion"
	ingestionhandlers "github.com/AnupBarde45/SEBI-final-sub001/internal/modules/ingestion/handlers"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/risk"
	riskhandlers "github.com/AnupBarde45/SEBI-final-sub001/internal/modules/risk/handlers"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/trading"
	tradinghandlers "github.com/AnupBarde45/SEBI-final-sub001/internal/modules/trading/handlers"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore"
	vectorhandlers "github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore/handlers"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/reliability"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/scheduler"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/server"
	"github.com/AnupBarde45/SEBI-final-sub001/pkg/logger"
)

func main() {
	// Load configuration first so the log level comes from it
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting SaralNivesh backend")

	// Databases
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileConfig,
		Name:    "config",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open config database")
	}
	defer configDB.Close()

	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	databases := map[string]*database.DB{
		"config":    configDB,
		"portfolio": portfolioDB,
		"history":   historyDB,
	}
	for name, db := range databases {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", name).Msg("Failed to run migrations")
		}
	}

	// Event bus
	eventBus := events.NewBus()

	// Risk scoring
	riskRepo := risk.NewRepository(configDB.Conn(), log)
	assessmentRepo := risk.NewAssessmentRepository(portfolioDB.Conn(), log)
	riskEngine := risk.NewEngine(riskRepo, log)

	// Vector store
	store := vectorstore.New(cfg.DataDir, log)
	if err := store.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open vector store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to flush vector store on shutdown")
		}
	}()

	// Trading
	portfolioRepo := trading.NewPortfolioRepository(portfolioDB.Conn(), log)
	priceRepo := trading.NewPriceRepository(historyDB.Conn(), log)
	tradingService := trading.NewService(portfolioRepo, priceRepo, cfg.StartingCash, eventBus, log)

	// Module routes
	modules := []server.RouteRegistrar{
		riskhandlers.NewHandler(riskEngine, riskRepo, assessmentRepo, eventBus, log),
		vectorhandlers.NewHandler(store, log),
		tradinghandlers.NewHandler(tradingService, priceRepo, log),
	}

	// Ingestion needs an embedding provider; without an API key the
	// ingestion endpoints are simply not mounted
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.EmbeddingModel, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		defer geminiClient.Close()

		ingestionService := ingestion.NewService(
			store,
			geminiClient,
			ingestion.NewEmbeddingCache(cfg.DataDir, log),
			ingestion.NewChunker(1000, 200, 100),
			cfg.EmbedInterval,
			cfg.EmbedCallTimeout,
			eventBus,
			log,
		)
		modules = append(modules, ingestionhandlers.NewHandler(ingestionService, log))
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, document ingestion disabled")
	}

	// Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob("@every 1m", scheduler.NewSnapshotFlushJob(store, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot flush job")
	}
	if err := sched.AddJob("@hourly", scheduler.NewWALCheckpointJob(databases, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Region:    cfg.Backup.Region,
			Bucket:    cfg.Backup.Bucket,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup storage client")
		}

		backupService := reliability.NewBackupService(s3Client, cfg.DataDir, eventBus, log)
		backupJob := scheduler.NewBackupJob(backupService, databases, cfg.Backup.Keep, log)
		if err := sched.AddJob("0 30 2 * * *", backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	systemHandlers := server.NewSystemHandlers(log, configDB, portfolioDB, historyDB, store)
	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		DevMode:  cfg.DevMode,
		EventBus: eventBus,
		System:   systemHandlers,
		Modules:  modules,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
