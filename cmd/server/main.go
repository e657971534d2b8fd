// Package main is the entry point for the analyst-service HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/config"
	"github.com/nexusdash/analyst-service/internal/search"
	"github.com/nexusdash/analyst-service/internal/server"
	"github.com/nexusdash/analyst-service/internal/service"
	"github.com/nexusdash/analyst-service/internal/storage"
	"github.com/nexusdash/analyst-service/internal/validation"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("ANALYST_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stdout/stderr, so the error is ignored.
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	calls := storage.NewAnalysisCallRepository(db)

	var searchOpts []search.Option
	if cfg.Search.BaseURL != "" {
		searchOpts = append(searchOpts, search.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.Simulate {
		searchOpts = append(searchOpts, search.WithSimulation())
	}
	searchSvc := search.NewService(cfg.Search.APIKey, cfg.Search.SecretKey, logger, searchOpts...)

	validator := validation.NewEngine(validation.StaticReference{}, logger)
	analysisSvc := service.NewAnalysisService(cfg, searchSvc, validator, calls, logger)

	srv := server.New(cfg, server.Deps{Analysis: analysisSvc, Calls: calls}, logger)

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (docker stop).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight analysis requests time to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
