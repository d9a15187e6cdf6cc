// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Database drivers understood by the server.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// AdminToken is the shared secret for /api/admin. Empty disables admin.
	AdminToken string `koanf:"admin_token"`
	// TeamName is shown on the public pages.
	TeamName string `koanf:"team_name"`
	// PublicBaseURL is the externally visible site root, used in logs and the CLI.
	PublicBaseURL string `koanf:"public_base_url"`

	// DatabaseDriver selects the store: memory or postgres.
	DatabaseDriver     string `koanf:"database_driver"`
	DatabaseDSN        string `koanf:"database_dsn"`
	DBMaxOpenConns     int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns     int    `koanf:"db_max_idle_conns"`
	DBConnMaxLifetimeS int    `koanf:"db_conn_max_lifetime_s"`

	// ResultsBaseURL and ResultsAPIKey point at the competition results API.
	// Without a key and team the sync pipeline stays off.
	ResultsBaseURL     string `koanf:"results_base_url"`
	ResultsAPIKey      string `koanf:"results_api_key"`
	ResultsProxy       string `koanf:"results_proxy"`
	TeamKey            string `koanf:"team_key"`
	ResultsTimeoutS    int    `koanf:"results_timeout_s"`
	ResultsConcurrency int    `koanf:"results_concurrency"`

	// SyncQueueSize bounds the in-memory sync queue.
	SyncQueueSize int `koanf:"sync_queue_size"`
	// SyncWorkerCount sets the number of sync workers.
	SyncWorkerCount int `koanf:"sync_worker_count"`
	// SyncDedupeSize caps the number of seasons tracked as in flight.
	SyncDedupeSize int `koanf:"sync_dedupe_size"`
	// SyncIntervalS schedules a sync of the current season. 0 disables it.
	SyncIntervalS int `koanf:"sync_interval_s"`
	// SyncJobTimeoutS bounds one season import.
	SyncJobTimeoutS int `koanf:"sync_job_timeout_s"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "json",
		Addr:               ":8080",
		TeamName:           "Robotics Team",
		DatabaseDriver:     DriverMemory,
		DBMaxOpenConns:     10,
		DBMaxIdleConns:     5,
		DBConnMaxLifetimeS: 1800,
		ResultsBaseURL:     "https://www.thebluealliance.com/api/v3",
		ResultsTimeoutS:    15,
		ResultsConcurrency: 4,
		SyncQueueSize:      64,
		SyncWorkerCount:    2,
		SyncDedupeSize:     1024,
		SyncIntervalS:      0,
		SyncJobTimeoutS:    120,
	}
}

// SyncEnabled reports whether enough is configured to talk to the results API.
func (c *Config) SyncEnabled() bool {
	return c.ResultsAPIKey != "" && c.TeamKey != ""
}

// ResultsTimeout is ResultsTimeoutS as a duration.
func (c *Config) ResultsTimeout() time.Duration {
	return time.Duration(c.ResultsTimeoutS) * time.Second
}

// SyncInterval is SyncIntervalS as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalS) * time.Second
}

// SyncJobTimeout is SyncJobTimeoutS as a duration.
func (c *Config) SyncJobTimeout() time.Duration {
	return time.Duration(c.SyncJobTimeoutS) * time.Second
}

// DBConnMaxLifetime is DBConnMaxLifetimeS as a duration.
func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeS) * time.Second
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDriver != DriverMemory && c.DatabaseDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown database_driver %q", ErrInvalidConfig, c.DatabaseDriver)
	case c.DatabaseDriver == DriverPostgres && c.DatabaseDSN == "":
		return ErrMissingDSN
	case c.LogFormat != "json" && c.LogFormat != "text":
		return fmt.Errorf("%w: log_format must be json or text", ErrInvalidConfig)
	case c.SyncQueueSize < 1, c.SyncWorkerCount < 1:
		return fmt.Errorf("%w: sync_queue_size and sync_worker_count must be positive", ErrInvalidConfig)
	case c.SyncIntervalS < 0:
		return fmt.Errorf("%w: sync_interval_s must not be negative", ErrInvalidConfig)
	case c.ResultsConcurrency < 1:
		return fmt.Errorf("%w: results_concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}
