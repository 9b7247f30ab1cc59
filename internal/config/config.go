package config

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/docmodel/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "DOCMODEL_"

// Config holds every docmodel setting.
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Document  DocumentConfig  `toml:"document"`
	Transform TransformConfig `toml:"transform"`
	Store     StoreConfig     `toml:"store"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Prefix: "docmodel"},
		Document: DocumentConfig{
			Roots: []string{"main"},
		},
		Transform: TransformConfig{PadWithNoOps: true},
		Store: StoreConfig{
			Backend:   BackendMemory,
			RedisAddr: "localhost:6379",
			KeyPrefix: "docmodel:oplog",
		},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	file      string
	fs        loader.FileSystem
	envPrefix string
	noEnv     bool
}

// WithFile reads settings from a TOML or YAML file. A missing file is ignored.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithFileSystem reads the config file through fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutEnv skips environment overrides.
func WithoutEnv() Option {
	return func(o *options) {
		o.noEnv = true
	}
}

// Load merges defaults, the config file and the environment, then validates
// the result.
func Load(opts ...Option) (*Config, error) {
	o := options{fs: loader.DefaultFS(), envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	sources := make([]loader.Loader, 0, 2)
	if o.file != "" {
		l, err := loader.ForFile(o.fs, o.file)
		if err != nil {
			return nil, err
		}
		sources = append(sources, l)
	}
	if !o.noEnv {
		sources = append(sources, loader.NewEnvLoader(o.envPrefix))
	}
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Message: "unknown level", Value: c.Logging.Level}
	}

	if c.Document.InitialVersion < 0 {
		return &ValidationError{Path: "document.initialVersion", Message: "must not be negative", Value: c.Document.InitialVersion}
	}
	if len(c.Document.Roots) == 0 {
		return &ValidationError{Path: "document.roots", Message: "at least one root is required"}
	}
	for i, name := range c.Document.Roots {
		switch {
		case name == "":
			return &ValidationError{Path: "document.roots", Message: "empty root name"}
		case name[0] == '$':
			return &ValidationError{Path: "document.roots", Message: "root names starting with $ are reserved", Value: name}
		case slices.Contains(c.Document.Roots[:i], name):
			return &ValidationError{Path: "document.roots", Message: "duplicate root", Value: name}
		}
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return &ValidationError{Path: "store.redisAddr", Message: "required for the redis backend"}
		}
	default:
		return &ValidationError{Path: "store.backend", Message: "must be memory or redis", Value: c.Store.Backend}
	}
	if c.Store.KeyPrefix == "" {
		return &ValidationError{Path: "store.keyPrefix", Message: "must not be empty"}
	}
	return nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	return loader.ParseTOML("<defaults>", data)
}

// fromMap decodes the merged map, rejecting unknown keys and mistyped values.
func fromMap(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}
