// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config defines the RiskWatch configuration model and loads it via
// Koanf v2 with layered sources (defaults < config file < environment).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the RiskWatch server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Oracle   OracleConfig   `koanf:"oracle"`
	Dedup    DedupConfig    `koanf:"dedup"`
	Enrich   EnrichConfig   `koanf:"enrich"`
	Weights  WeightsConfig  `koanf:"weights"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the database file path. Empty means in-memory (tests).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// OracleConfig configures the external scoring oracle client.
type OracleConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	// RatePerSecond caps outbound oracle calls. 0 disables the limiter.
	RatePerSecond float64 `koanf:"rate_per_second"`
	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit breaker.
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerOpenTimeout      time.Duration `koanf:"breaker_open_timeout"`
}

// DedupConfig configures the duplicate-alert matcher.
type DedupConfig struct {
	// Window is the trailing interval within which identical alerts are
	// treated as repeats.
	Window time.Duration `koanf:"window"`
}

// EnrichConfig configures the asynchronous enrichment worker pool.
type EnrichConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// WeightsConfig holds the default leaderboard weights.
type WeightsConfig struct {
	Rule float64 `koanf:"rule"`
	ML   float64 `koanf:"ml"`
}

// SecurityConfig configures transport-level protections.
type SecurityConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/riskwatch.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Oracle: OracleConfig{
			URL:                     "",
			Timeout:                 20 * time.Second,
			RatePerSecond:           2,
			BreakerFailureThreshold: 5,
			BreakerOpenTimeout:      30 * time.Second,
		},
		Dedup: DedupConfig{
			Window: 240 * time.Minute,
		},
		Enrich: EnrichConfig{
			Workers:   4,
			QueueSize: 256,
		},
		Weights: WeightsConfig{
			Rule: 0.5,
			ML:   0.5,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Dedup.Window <= 0 {
		return fmt.Errorf("dedup.window must be positive, got %s", c.Dedup.Window)
	}
	if c.Enrich.Workers < 1 {
		return fmt.Errorf("enrich.workers must be at least 1, got %d", c.Enrich.Workers)
	}
	if c.Enrich.QueueSize < 1 {
		return fmt.Errorf("enrich.queue_size must be at least 1, got %d", c.Enrich.QueueSize)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive, got %s", c.Oracle.Timeout)
	}
	if c.Weights.Rule < 0 || c.Weights.ML < 0 {
		return fmt.Errorf("weights must be non-negative, got rule=%v ml=%v", c.Weights.Rule, c.Weights.ML)
	}
	return nil
}
