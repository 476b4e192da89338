/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string
	MetricsBind string

	// Projection cache configuration
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("SHOTBUILDER_ENV", "development"),
		HTTPBind:    getEnv("SHOTBUILDER_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("SHOTBUILDER_HTTP_PORT", 8080),
		DBBackend:   DatabaseBackend(getEnv("SHOTBUILDER_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("SHOTBUILDER_DB_DSN", ""),
		MetricsBind: getEnv("SHOTBUILDER_METRICS_BIND", "127.0.0.1:9000"),

		CacheEnabled:  getEnvBool("SHOTBUILDER_CACHE_ENABLED", false),
		RedisAddr:     getEnv("SHOTBUILDER_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("SHOTBUILDER_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("SHOTBUILDER_REDIS_DB", 0),

		TracingEnabled:    getEnvBool("SHOTBUILDER_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("SHOTBUILDER_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("SHOTBUILDER_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		if cfg.DBBackend != DatabaseSQLite {
			return nil, fmt.Errorf("SHOTBUILDER_DB_DSN must be provided for backend %q", cfg.DBBackend)
		}
		cfg.DBDSN = "shotbuilder.db"
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
