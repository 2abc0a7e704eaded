// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package config

import (
	"time"
)

// Config is the top-level configuration container for fieldvault. It is
// populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// App holds application-level settings.
	App App `envPrefix:"APP_" json:"app"`

	// Crypto holds the encryption subsystem's tunables.
	Crypto Crypto `envPrefix:"CRYPTO_" json:"crypto"`

	// Storage holds the document store connection settings.
	Storage Storage `envPrefix:"STORAGE_" json:"storage"`

	// Remote holds the sync backend client settings.
	Remote Remote `envPrefix:"REMOTE_" json:"remote"`

	// Diag holds the debug endpoint settings.
	Diag Diag `envPrefix:"DIAG_" json:"diag"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged after environment
	// variables and flags. Populated via the CONFIG environment variable or
	// the -c / -config flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION" json:"version"`
}

// Crypto holds tunables for the field-encryption subsystem.
type Crypto struct {
	// Disabled turns field encryption off globally. Records are then
	// persisted in plaintext and every encode logs a degradation.
	// Env: CRYPTO_DISABLED
	Disabled bool `env:"DISABLED" json:"disabled"`

	// EncodeWait bounds how long a write waits for the encryption key
	// before falling back to plaintext (e.g. "2s").
	// Env: CRYPTO_ENCODE_WAIT
	EncodeWait time.Duration `env:"ENCODE_WAIT" json:"encode_wait"`

	// DecodeWait bounds how long a read waits for the encryption key before
	// returning a partial record (e.g. "6s").
	// Env: CRYPTO_DECODE_WAIT
	DecodeWait time.Duration `env:"DECODE_WAIT" json:"decode_wait"`

	// PolicyPath optionally overrides the embedded collection policy table
	// with a JSON file.
	// Env: CRYPTO_POLICY_PATH
	PolicyPath string `env:"POLICY_PATH" json:"policy_path"`
}

// Storage holds connection settings for the document store.
type Storage struct {
	// Driver selects the database driver: "sqlite3" for the local client
	// cache or "pgx" for a hosted PostgreSQL deployment.
	// Env: STORAGE_DRIVER
	Driver string `env:"DRIVER" json:"driver"`

	// DSN is the driver-specific Data Source Name (a file path for SQLite,
	// a postgres:// URL for pgx).
	// Env: STORAGE_DSN
	DSN string `env:"DSN" json:"dsn"`
}

// Remote holds settings for the sync backend HTTP client.
type Remote struct {
	// BaseURL is the sync backend root (e.g. "https://sync.example.com").
	// Empty disables remote sync.
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL" json:"base_url"`

	// Timeout is the per-request timeout for sync calls (e.g. "15s").
	// Env: REMOTE_TIMEOUT
	Timeout time.Duration `env:"TIMEOUT" json:"timeout"`
}

// Diag holds settings for the local debug endpoint.
type Diag struct {
	// Address is the TCP address the debug server listens on
	// (e.g. "127.0.0.1:6065"). Empty disables the endpoint.
	// Env: DIAG_ADDRESS
	Address string `env:"ADDRESS" json:"address"`
}

// GetConfig loads, merges, and validates the application configuration from
// all available sources in the following priority order (first non-zero
// value wins):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *Config or an error if any source fails to load
// or the final config fails validation.
func GetConfig() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
