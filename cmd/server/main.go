package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerfeed/importer/internal/artifact"
	"github.com/ledgerfeed/importer/internal/config"
	"github.com/ledgerfeed/importer/internal/handler"
	"github.com/ledgerfeed/importer/internal/ledger"
	"github.com/ledgerfeed/importer/internal/match"
	"github.com/ledgerfeed/importer/internal/server"
	"github.com/ledgerfeed/importer/internal/service"
	"github.com/ledgerfeed/importer/internal/source/nordigen"
	"github.com/ledgerfeed/importer/internal/source/saltedge"
	"github.com/ledgerfeed/importer/internal/status"
	"github.com/ledgerfeed/importer/internal/submit"
	"github.com/ledgerfeed/importer/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	artifacts := artifact.NewFileStore(cfg.Storage.ArtifactDir, log)
	conversions := status.NewFileStore(cfg.Storage.StatusDir+"/conversion", log)
	submissions := status.NewFileStore(cfg.Storage.StatusDir+"/submission", log)
	log.Info(ctx, "Stores initialized",
		"artifact_dir", cfg.Storage.ArtifactDir,
		"status_dir", cfg.Storage.StatusDir,
	)

	ledgerClient := ledger.NewClient(cfg.Ledger.URL, cfg.Ledger.Token, cfg.Ledger.Timeout, log)
	saltedgeClient := saltedge.NewClient(cfg.SaltEdge.URL, cfg.SaltEdge.AppID, cfg.SaltEdge.Secret, cfg.Fetch.Timeout, log)
	nordigenClient := nordigen.NewClient(cfg.Nordigen.URL, cfg.Nordigen.Token, cfg.Fetch.Timeout, log)
	log.Info(ctx, "API clients initialized",
		"ledger_url", cfg.Ledger.URL,
	)

	matcher := match.NewMatcher(log)
	engine := submit.NewEngine(ledgerClient, artifacts, submissions, matcher, log)
	factory := service.NewAdapterFactory(saltedgeClient, nordigenClient, cfg.Fetch, log)

	importService := service.NewImportService(
		conversions,
		submissions,
		artifacts,
		ledgerClient,
		engine,
		factory,
		matcher,
		log,
	)
	log.Info(ctx, "Services initialized")

	importHandler := handler.NewImportHandler(importService, log)
	healthHandler := handler.NewHealthHandler(saltedgeClient)
	log.Info(ctx, "Handlers initialized")

	srv := server.New(cfg, log, importHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}
