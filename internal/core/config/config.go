package config

import (
	"time"

	"github.com/ara-foundation/act-indexer/internal/infra/forum"
	redisclient "github.com/ara-foundation/act-indexer/internal/infra/redis"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/postgres"
	"github.com/ara-foundation/act-indexer/internal/indexing/source"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Indexer  IndexerConfig      `yaml:"indexer"`
	Networks []NetworkConfig    `yaml:"networks"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
	Forum    forum.Config       `yaml:"forum"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// IndexerConfig holds the polling loop settings.
type IndexerConfig struct {
	// Enabled gates the whole polling loop. When false the process only
	// serves health and stats endpoints.
	Enabled bool `yaml:"enabled"`

	Interval time.Duration `yaml:"interval"`
	Source   source.Config `yaml:"source"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// NetworkConfig holds settings for one tracked EVM network.
type NetworkConfig struct {
	NetworkID    int64         `yaml:"id"`
	RPCURL       string        `yaml:"rpc_url"`
	RPCTimeout   time.Duration `yaml:"rpc_timeout"`
	ActAddress   string        `yaml:"act_address"`
	NativeSymbol string        `yaml:"native_symbol"`
}
