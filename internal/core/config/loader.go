package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads the YAML configuration file, expands ${VAR} references from
// the environment and fills in defaults for optional fields.
func Load(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Indexer.Interval == 0 {
		cfg.Indexer.Interval = 5 * time.Second
	}
	if cfg.Indexer.Source.Timeout == 0 {
		cfg.Indexer.Source.Timeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	for i := range cfg.Networks {
		if cfg.Networks[i].RPCTimeout == 0 {
			cfg.Networks[i].RPCTimeout = 15 * time.Second
		}
	}
}

func validate(cfg *AppConfig) error {
	if cfg.Indexer.Enabled && cfg.Indexer.Source.Endpoint == "" {
		return fmt.Errorf("indexer.source.endpoint is required when the indexer is enabled")
	}
	for _, n := range cfg.Networks {
		if n.NetworkID == 0 {
			return fmt.Errorf("networks: id is required")
		}
		if n.RPCURL == "" {
			return fmt.Errorf("network %d: rpc_url is required", n.NetworkID)
		}
		if n.ActAddress == "" {
			return fmt.Errorf("network %d: act_address is required", n.NetworkID)
		}
	}
	return nil
}
