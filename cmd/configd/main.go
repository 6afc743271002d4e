package main

import (
	"config-lab/broadcast"
	"config-lab/domain"
	"config-lab/infrastructure/transport"
	"config-lab/internal"
	"config-lab/registry"
	"config-lab/repositories"
	"config-lab/runtime/workers"
	"config-lab/services"
	"config-lab/sessions"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the workers and the admin API.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core wiring: registry, store, engine, gateway, service
	reg := registry.New()
	sessionRepository := repositories.NewSessionRepository(db, logger)
	store := sessions.NewStore(reg, sessionRepository, logger)
	if err := store.LoadAll(); err != nil {
		return exitRuntime, fmt.Errorf("session restore failed: %w", err)
	}

	publisher := repositories.NewOutboxPublisher(db, logger)
	gateway := broadcast.NewGateway(publisher, config.AuditReceiver, logger)
	engine := sessions.NewEngine(store, reg, gateway, logger)
	chatTransport := transport.NewLogTransport(logger)
	configService := services.NewConfigService(logger, store, engine, reg, chatTransport, gateway)

	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort > 0 {
		url := fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort)
		logger.Info("Debug Badger inspector available", "url", url)
		internal.StartDebugServer(db, config.DebugPort, "/inspect", SessionMapper, func() map[string]any {
			return map[string]any{"ActiveSessions": store.Len()}
		})
	}

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Error (admin API & workers)
	errChan := make(chan error, 2)

	// 5. Background workers under supervision
	sup := workers.NewSupervisor(logger)
	sup.Add(
		workers.NewReaperWorker(logger, store, chatTransport, config.ReapInterval, config.SessionBudget),
		workers.NewFlushWorker(logger, store, config.FlushInterval),
		workers.NewStatsWorker(logger, store, config.StatsInterval),
	)
	go func() {
		logger.Info("Starting workers...")
		sup.Run(ctx)
	}()

	// 6. Admin API
	mux := http.NewServeMux()
	internal.NewAdminAPI(configService, store).Routes(mux)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		logger.Info("Admin API listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("admin API error: %w", err)
		}
	}()

	// 7. Wait for shutdown or fatal error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()

	// A clean stop requires every session on disk.
	if err := store.Flush(); err != nil {
		return exitRuntime, fmt.Errorf("final flush failed: %w", err)
	}

	logger.Info("configd stopped cleanly")
	return exitOK, nil
}

// SessionMapper renders a persisted session row for the inspector.
func SessionMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var session domain.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return row
	}

	row.Feature = string(session.Feature)
	row.Status = session.Status.String()
	row.Group = strconv.FormatInt(session.Provenance.GroupID, 10)
	row.Admin = strconv.FormatInt(session.Provenance.AdminID, 10)
	row.Age = time.Since(session.CreatedAt).Round(time.Second).String()
	row.Detail = fmt.Sprintf("%d field(s)", len(session.Draft))
	return row
}
