package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/db"
	"github.com/diewo77/backoffice/internal/handlers"
	"github.com/diewo77/backoffice/internal/logging"
	"github.com/diewo77/backoffice/internal/metrics"
	"github.com/diewo77/backoffice/internal/server"
	"github.com/diewo77/backoffice/internal/workflow"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbConn, err := db.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.Setup(dbConn, cfg, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if *migrateOnlyFlag {
		logger.Info("migrations completed")
		return
	}

	ctx := context.Background()
	seq, err := db.NewSequencer(ctx, dbConn, cfg.Sequencer)
	if err != nil {
		logger.Fatal("failed to build sequencer", zap.Error(err))
	}

	m := metrics.NewWith(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	h := handlers.New(dbConn, handlers.Options{
		Sequencer:            seq,
		Engine:               workflow.NewEngine(logger),
		TrainingCategoryCode: cfg.Domain.TrainingCategoryCode,
		Logger:               logger,
	})
	app, err := server.NewApp(h, cfg.Server.RateLimit, logger, m)
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}
	srv := server.New(cfg.Server, app)

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
			zap.String("sequencer", cfg.Sequencer.Backend),
			zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}
