package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonConfig struct {
	App struct {
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Crypto struct {
		Disabled   bool     `json:"disabled"`
		EncodeWait Duration `json:"encode_wait"`
		DecodeWait Duration `json:"decode_wait"`
		PolicyPath string   `json:"policy_path"`
	} `json:"crypto,omitempty"`

	Storage struct {
		Driver string `json:"driver"`
		DSN    string `json:"dsn"`
	} `json:"storage,omitempty"`

	Remote struct {
		BaseURL string   `json:"base_url"`
		Timeout Duration `json:"timeout"`
	} `json:"remote,omitempty"`

	Diag struct {
		Address string `json:"address"`
	} `json:"diag,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg jsonConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		App: App{
			Version: jsonCfg.App.Version,
		},
		Crypto: Crypto{
			Disabled:   jsonCfg.Crypto.Disabled,
			EncodeWait: time.Duration(jsonCfg.Crypto.EncodeWait),
			DecodeWait: time.Duration(jsonCfg.Crypto.DecodeWait),
			PolicyPath: jsonCfg.Crypto.PolicyPath,
		},
		Storage: Storage{
			Driver: jsonCfg.Storage.Driver,
			DSN:    jsonCfg.Storage.DSN,
		},
		Remote: Remote{
			BaseURL: jsonCfg.Remote.BaseURL,
			Timeout: time.Duration(jsonCfg.Remote.Timeout),
		},
		Diag: Diag{
			Address: jsonCfg.Diag.Address,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON
// unmarshaling from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
