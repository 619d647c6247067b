// Command codecell runs the CodeCell execution service: an HTTP + WebSocket
// backend that executes submitted code snippets as OS processes with live
// output streaming, cancellation, and project persistence.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/codecell/codecell/internal/api"
	"github.com/codecell/codecell/internal/common/config"
	"github.com/codecell/codecell/internal/common/logger"
	"github.com/codecell/codecell/internal/db"
	"github.com/codecell/codecell/internal/events"
	gatewayws "github.com/codecell/codecell/internal/gateway/websocket"
	"github.com/codecell/codecell/internal/project"
	"github.com/codecell/codecell/internal/runner"
	"github.com/codecell/codecell/internal/runtime"
	"github.com/codecell/codecell/internal/telemetry"
	ws "github.com/codecell/codecell/pkg/websocket"
)

const (
	shutdownTimeout = 10 * time.Second
	tempProjectAge  = 7 * 24 * time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "codecell: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	provided, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = busCleanup() }()

	sqlDB, err := db.OpenSQLite(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	store, err := project.NewStore(sqlDB)
	if err != nil {
		return err
	}
	projects := project.NewManager(cfg.Storage.DataDir, store, provided.Bus, log)
	if err := projects.Init(); err != nil {
		return err
	}
	if err := projects.CleanupOldTemp(tempProjectAge); err != nil {
		log.WithError(err).Warn("temp project cleanup failed")
	}

	chains, err := runner.LoadToolchains(cfg.Runner.ToolchainFile)
	if err != nil {
		return err
	}
	supervisor := runner.NewSupervisor(provided.Bus, log, chains, cfg.Runner.ScratchDir)

	dispatcher := ws.NewDispatcher()
	gatewayws.RegisterHealthHandler(dispatcher)
	hub := gatewayws.NewHub(dispatcher, log)
	go hub.Run(ctx)
	gatewayws.RegisterExecutionNotifications(ctx, provided.Bus, hub, log)
	wsHandler := gatewayws.NewHandler(hub, log)

	router := api.New(supervisor, runtime.NewDetector(), projects, wsHandler, log).Router()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	// Kill any execution still in flight so no orphaned processes or
	// scratch artifacts survive the service.
	for _, sessionID := range supervisor.ActiveSessions() {
		supervisor.Teardown(sessionID)
	}

	log.Info("codecell stopped")
	return nil
}
