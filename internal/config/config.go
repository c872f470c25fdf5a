package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/adaptivecache/adaptivecache/pkg/errors"
)

// envPrefix namespaces environment overrides, e.g.
// ADAPTIVECACHE_CACHE_MAX_SIZE_MB=256 overrides cache.max_size_mb.
const envPrefix = "ADAPTIVECACHE_"

// Config represents the complete cache manager configuration.
type Config struct {
	Cache       CacheConfig       `koanf:"cache" validate:"required"`
	Compression CompressionConfig `koanf:"compression"`
	Preload     PreloadConfig     `koanf:"preload"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Logging     LoggingConfig     `koanf:"logging"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// CacheConfig bounds the cache's memory footprint.
type CacheConfig struct {
	MaxSizeMB  int64 `koanf:"max_size_mb" validate:"gt=0"`
	MaxEntries int   `koanf:"max_entries" validate:"gt=0"`
}

// CompressionConfig selects the compression strategy for large payloads.
type CompressionConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Algorithm      string `koanf:"algorithm" validate:"oneof=zstd lz4 identity"`
	Level          int    `koanf:"level" validate:"gte=0,lte=11"`
	ThresholdBytes int64  `koanf:"threshold_bytes" validate:"gte=0"`
}

// PreloadConfig tunes the predictive preloader.
type PreloadConfig struct {
	Enabled           bool    `koanf:"enabled"`
	Workers           int     `koanf:"workers" validate:"gte=1,lte=16"`
	LoadsPerSecond    float64 `koanf:"loads_per_second" validate:"gte=0"`
	MaxPredictedLoads int     `koanf:"max_predicted_loads" validate:"gte=1"`
}

// MaintenanceConfig tunes the background maintenance task.
type MaintenanceConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Port    int    `koanf:"port" validate:"gte=0,lte=65535"`
	Path    string `koanf:"path"`
}

// MaxSizeBytes returns the configured capacity in bytes.
func (c *CacheConfig) MaxSizeBytes() int64 {
	return c.MaxSizeMB * 1024 * 1024
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration file (optional, path may be empty)
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to load defaults", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigLoad,
				fmt.Sprintf("failed to load config file %s", path), err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// ADAPTIVECACHE_CACHE_MAX_SIZE_MB -> cache.max_size_mb
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.Replace(key, "_", ".", 1), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to load environment variables", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoad, "failed to unmarshal config", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching files or the
// environment.
func Default() *Config {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		panic(err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Validate checks the configuration against its declared constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeConfigValidation, "configuration failed validation", err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"cache.max_size_mb": 100,
		"cache.max_entries": 10000,

		"compression.enabled":         true,
		"compression.algorithm":       "zstd",
		"compression.level":           3,
		"compression.threshold_bytes": 1024,

		"preload.enabled":             true,
		"preload.workers":             2,
		"preload.loads_per_second":    0, // unlimited
		"preload.max_predicted_loads": 5,

		"maintenance.interval": "60s",

		"logging.level":  "info",
		"logging.pretty": false,

		"metrics.enabled": false,
		"metrics.port":    9090,
		"metrics.path":    "/metrics",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
