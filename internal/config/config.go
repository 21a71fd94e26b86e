// Package config loads marinecore settings from an optional YAML file and
// MARINECORE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"marinecore/internal/blob"

	"gopkg.in/yaml.v3"
)

// Storage driver identifiers accepted by storage.driver.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageBlob     = "blob"
)

const (
	defaultAddr      = ":8080"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	envPrefix        = "MARINECORE_"
)

// Storage selects and parameterises the persistence driver.
type Storage struct {
	Driver      string      `yaml:"driver"`
	SQLitePath  string      `yaml:"sqlite_path"`
	PostgresDSN string      `yaml:"postgres_dsn"`
	Blob        blob.Config `yaml:"blob"`
}

// Config holds the process configuration.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Storage Storage `yaml:"storage"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Metrics.Enabled = true
	applyDefaults(cfg)
	return cfg
}

// Load reads path when it is non-empty, then applies environment overrides
// and defaults. A missing file is an error only when path was given.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultAddr
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultLogFormat
	}
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"HTTP_ADDR":          &cfg.HTTP.Addr,
		"STORAGE_DRIVER":     &cfg.Storage.Driver,
		"SQLITE_PATH":        &cfg.Storage.SQLitePath,
		"POSTGRES_DSN":       &cfg.Storage.PostgresDSN,
		"BLOB_DRIVER":        &cfg.Storage.Blob.Driver,
		"BLOB_FS_ROOT":       &cfg.Storage.Blob.FSRoot,
		"BLOB_PREFIX":        &cfg.Storage.Blob.Prefix,
		"BLOB_S3_BUCKET":     &cfg.Storage.Blob.S3.Bucket,
		"BLOB_S3_REGION":     &cfg.Storage.Blob.S3.Region,
		"BLOB_S3_ENDPOINT":   &cfg.Storage.Blob.S3.Endpoint,
		"BLOB_S3_ACCESS_KEY": &cfg.Storage.Blob.S3.AccessKeyID,
		"BLOB_S3_SECRET_KEY": &cfg.Storage.Blob.S3.SecretAccessKey,
		"LOG_LEVEL":          &cfg.Log.Level,
		"LOG_FORMAT":         &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	bools := map[string]*bool{
		"BLOB_S3_PATH_STYLE": &cfg.Storage.Blob.S3.PathStyle,
		"METRICS_ENABLED":    &cfg.Metrics.Enabled,
	}
	for key, dst := range bools {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}
	return nil
}

// Validate rejects unknown enumerations.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres, StorageBlob:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses log.level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}
