/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the clinic ledger HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Parse command-line flags (override environment)
  3. Set up zerolog
  4. Open the store, seed defaults, resolve control accounts
  5. Start the month-end closing scheduler (AUTO_CLOSE_ENABLED)
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    Listen address (default: APP_ADDR, ":8080")
  -db      Database DSN (default: DB_DSN, "ledger.db")
           Use ":memory:" for an in-memory SQLite database

ENVIRONMENT:
  See config/config.go for the full list. Common ones:
  DB_DRIVER=pgx DB_DSN=postgres://...   Run on PostgreSQL
  LOG_FORMAT=json LOG_LEVEL=debug       Structured logs
  CASH_ACCOUNT_CODE, RETAINED_EARNINGS_CODE, PAYABLES_ACCOUNT_CODE

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the closing scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/warp/clinic-ledger/api"
	"github.com/warp/clinic-ledger/app"
	"github.com/warp/clinic-ledger/config"
	"github.com/warp/clinic-ledger/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	addr := flag.String("addr", cfg.AppAddr, "HTTP listen address")
	dsn := flag.String("db", cfg.DBDSN, "database DSN")
	flag.Parse()
	cfg.AppAddr, cfg.DBDSN = *addr, *dsn

	logger, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	var scheduler *app.ClosingScheduler
	if cfg.AutoCloseEnabled {
		scheduler = app.NewClosingScheduler(a.Closer, cfg.AutoCloseGrace, cfg.AutoCloseInterval, logger)
		scheduler.Start()
	}

	handler := api.NewHandler(a, logger)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.AppAddr).Str("env", cfg.AppEnv).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server stopped")
}
