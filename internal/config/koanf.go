// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/nurrustem/riskwatch/internal/logging"
)

// envPrefix is the prefix for all RiskWatch environment variables.
const envPrefix = "RISKWATCH_"

// envKeyMap maps environment variable suffixes (after the prefix) to koanf
// key paths. Only mapped variables are honored; everything else with the
// prefix is ignored with a warning so typos surface in logs.
var envKeyMap = map[string]string{
	"SERVER_HOST":    "server.host",
	"SERVER_PORT":    "server.port",
	"SERVER_TIMEOUT": "server.timeout",

	"DATABASE_PATH":       "database.path",
	"DATABASE_MAX_MEMORY": "database.max_memory",
	"DATABASE_THREADS":    "database.threads",

	"ORACLE_URL":                       "oracle.url",
	"ORACLE_TIMEOUT":                   "oracle.timeout",
	"ORACLE_RATE_PER_SECOND":           "oracle.rate_per_second",
	"ORACLE_BREAKER_FAILURE_THRESHOLD": "oracle.breaker_failure_threshold",
	"ORACLE_BREAKER_OPEN_TIMEOUT":      "oracle.breaker_open_timeout",

	"DEDUP_WINDOW": "dedup.window",

	"ENRICH_WORKERS":    "enrich.workers",
	"ENRICH_QUEUE_SIZE": "enrich.queue_size",

	"WEIGHTS_RULE": "weights.rule",
	"WEIGHTS_ML":   "weights.ml",

	"SECURITY_CORS_ORIGINS":      "security.cors_origins",
	"SECURITY_RATE_LIMIT_REQS":   "security.rate_limit_reqs",
	"SECURITY_RATE_LIMIT_WINDOW": "security.rate_limit_window",

	"LOGGING_LEVEL":  "logging.level",
	"LOGGING_FORMAT": "logging.format",
	"LOGGING_CALLER": "logging.caller",
}

// configSearchPaths lists candidate config file locations, checked in order.
var configSearchPaths = []string{
	"riskwatch.yaml",
	"config/riskwatch.yaml",
	"/etc/riskwatch/riskwatch.yaml",
}

// Load builds the configuration from defaults, an optional YAML file, and
// RISKWATCH_* environment variables, in increasing precedence.
//
// If path is empty, the standard search paths are tried; a missing file is
// not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		logging.Debug().Str("path", path).Msg("Loaded configuration file")
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envTransform maps RISKWATCH_* variables to koanf keys via envKeyMap.
// Unknown variables map to "" which koanf drops.
func envTransform(s string) string {
	suffix := strings.TrimPrefix(s, envPrefix)
	if key, ok := envKeyMap[suffix]; ok {
		return key
	}
	logging.Warn().Str("variable", s).Msg("Ignoring unrecognized environment variable")
	return ""
}

// findConfigFile returns the first existing candidate path, or "".
func findConfigFile() string {
	for _, p := range configSearchPaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
