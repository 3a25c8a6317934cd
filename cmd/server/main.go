// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server runs the RiskWatch API: alert ingestion, risk scoring,
// oracle enrichment, and the live dashboard feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurrustem/riskwatch/internal/aggregate"
	"github.com/nurrustem/riskwatch/internal/api"
	"github.com/nurrustem/riskwatch/internal/config"
	"github.com/nurrustem/riskwatch/internal/database"
	"github.com/nurrustem/riskwatch/internal/enrich"
	"github.com/nurrustem/riskwatch/internal/ingest"
	"github.com/nurrustem/riskwatch/internal/logging"
	"github.com/nurrustem/riskwatch/internal/models"
	"github.com/nurrustem/riskwatch/internal/websocket"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	oracle := enrich.NewHTTPOracle(cfg.Oracle)
	pool := enrich.NewPool(oracle, db, hub, cfg.Enrich.Workers, cfg.Enrich.QueueSize)
	pool.Start(ctx)

	coordinator := ingest.NewCoordinator(db, hub, pool, cfg.Dedup.Window)

	engine := aggregate.NewEngine(db, models.WeightConfig{
		Rule: cfg.Weights.Rule,
		ML:   cfg.Weights.ML,
	})
	defer engine.Close()

	server := api.NewServer(coordinator, db, db, engine, hub, cfg.Security)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// No WriteTimeout: websocket connections are long-lived.
		IdleTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("RiskWatch listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("HTTP drain incomplete")
	}

	// Workers and the hub observe ctx cancellation from the signal.
	pool.Wait()

	logging.Info().Msg("Shutdown complete")
	return nil
}
