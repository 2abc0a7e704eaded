// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package config

import "time"

const (
	defaultDriver     = "sqlite3"
	defaultEncodeWait = 2 * time.Second
	defaultDecodeWait = 6 * time.Second
	defaultTimeout    = 15 * time.Second
)

// applyDefaults fills the fields no source provided. Runs before validate
// on the fully merged config.
func (cfg *Config) applyDefaults() {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaultDriver
	}
	if cfg.Crypto.EncodeWait == 0 {
		cfg.Crypto.EncodeWait = defaultEncodeWait
	}
	if cfg.Crypto.DecodeWait == 0 {
		cfg.Crypto.DecodeWait = defaultDecodeWait
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = defaultTimeout
	}
}

// validate checks that the final merged [Config] satisfies all application
// invariants before it is used at startup.
func (cfg *Config) validate() error {
	if cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Storage.Driver != "sqlite3" && cfg.Storage.Driver != "pgx" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Crypto.EncodeWait < 0 || cfg.Crypto.DecodeWait < 0 {
		return ErrInvalidCryptoConfigs
	}

	return nil
}
