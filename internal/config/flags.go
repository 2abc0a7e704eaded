package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database DSN
//	-driver database driver ("sqlite3" or "pgx")
//	-c/-config json file path with configs
//	-remote sync backend base URL
//	-remote-timeout sync request timeout (e.g., "15s")
//	-policy collection policy file path
//	-diag-address debug endpoint listen address
//	-encryption-off disable field encryption
func ParseFlags() *Config {
	var databaseDSN string
	var databaseDriver string
	var jsonConfigPath string
	var remoteBaseURL string
	var remoteTimeout time.Duration
	var policyPath string
	var diagAddress string
	var encryptionOff bool

	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&databaseDriver, "driver", "", "Database driver (sqlite3 or pgx)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&remoteBaseURL, "remote", "", "Sync backend base URL")
	flag.DurationVar(&remoteTimeout, "remote-timeout", 0, "Sync request timeout (e.g., 15s)")
	flag.StringVar(&policyPath, "policy", "", "Collection policy file path")
	flag.StringVar(&diagAddress, "diag-address", "", "Debug endpoint listen address")
	flag.BoolVar(&encryptionOff, "encryption-off", false, "Disable field encryption")

	flag.Parse()

	return &Config{
		Crypto: Crypto{
			Disabled:   encryptionOff,
			PolicyPath: policyPath,
		},
		Storage: Storage{
			Driver: databaseDriver,
			DSN:    databaseDSN,
		},
		Remote: Remote{
			BaseURL: remoteBaseURL,
			Timeout: remoteTimeout,
		},
		Diag: Diag{
			Address: diagAddress,
		},
		JSONFilePath: jsonConfigPath,
	}
}
