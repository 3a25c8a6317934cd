// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package database is the DuckDB persistence layer for alerts, feedback,
// and the aggregate queries that feed the leaderboard and KPI endpoints.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/nurrustem/riskwatch/internal/config"
	"github.com/nurrustem/riskwatch/internal/logging"
)

// DB wraps the DuckDB connection pool.
type DB struct {
	conn *sql.DB
}

// Open connects to the DuckDB database at cfg.Path and applies the schema.
// An empty path opens an in-memory database, used by tests.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dsn := cfg.Path
	if dsn != "" {
		dsn = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, threads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}

	// DuckDB is embedded; a single writer connection avoids lock contention.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging duckdb: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.applySchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", threads).Msg("Database opened")
	return db, nil
}

// applySchema creates tables and sequences if they do not exist.
// DuckDB has no autoincrement, so explicit sequences provide monotonic IDs.
func (db *DB) applySchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_alert_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_feedback_id START 1`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id           BIGINT PRIMARY KEY DEFAULT nextval('seq_alert_id'),
			timestamp    TIMESTAMP NOT NULL,
			src_ip       VARCHAR NOT NULL,
			dest_ip      VARCHAR NOT NULL,
			signature    VARCHAR NOT NULL,
			severity     INTEGER NOT NULL,
			proto        VARCHAR NOT NULL,
			rule_score   DOUBLE NOT NULL,
			ml_score     DOUBLE NOT NULL DEFAULT 0,
			explanation  VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id               BIGINT PRIMARY KEY DEFAULT nextval('seq_feedback_id'),
			alert_id         BIGINT NOT NULL,
			is_true_positive BOOLEAN NOT NULL,
			timestamp        TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_src_ip ON alerts (src_ip)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_alert_id ON feedback (alert_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:min(40, len(stmt))], err)
		}
	}
	return nil
}

// Checkpoint flushes the WAL into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint on close failed")
	}
	return db.conn.Close()
}
