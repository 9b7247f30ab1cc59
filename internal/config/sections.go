package config

import (
	"os"

	"github.com/dshills/docmodel/internal/logging"
)

// LoggingConfig configures the shared logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`

	// Prefix is written before every log message.
	Prefix string `toml:"prefix"`
}

// LoggerConfig converts the section into a logging.Config writing to stderr.
func (c LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(c.Level),
		Output: os.Stderr,
		Prefix: c.Prefix,
	}
}

// DocumentConfig configures new documents.
type DocumentConfig struct {
	// InitialVersion is the version of a freshly created document.
	InitialVersion int `toml:"initialVersion"`

	// Roots are created in order when a document is built.
	Roots []string `toml:"roots"`
}

// TransformConfig configures operation set transformation during sync.
type TransformConfig struct {
	// UseContext enables relation tracking between operations of a set.
	UseContext bool `toml:"useContext"`

	// PadWithNoOps keeps the transformed set lengths equal to the input lengths.
	PadWithNoOps bool `toml:"padWithNoOps"`
}

// StoreConfig selects the operation log backend.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string `toml:"backend"`

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string `toml:"redisAddr"`

	// RedisDB is the Redis database number.
	RedisDB int `toml:"redisDB"`

	// KeyPrefix prefixes every operation log key.
	KeyPrefix string `toml:"keyPrefix"`
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)
