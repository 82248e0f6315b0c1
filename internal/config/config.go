// Package config loads and validates the service configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains bind address configuration.
type Server struct {
	Bind string `toml:"bind"`
}

// Blob selects and configures the content storage driver.
type Blob struct {
	Driver      string `toml:"driver"`
	FSRoot      string `toml:"fs_root"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Region    string `toml:"s3_region"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3PathStyle bool   `toml:"s3_path_style"`
}

// Persistence selects the catalog/session store backend.
type Persistence struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// Limits bounds uploaded packages.
type Limits struct {
	MaxPackageBytes int64 `toml:"max_package_bytes"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full service configuration.
type Config struct {
	Server      Server      `toml:"server"`
	Blob        Blob        `toml:"blob"`
	Persistence Persistence `toml:"persistence"`
	Limits      Limits      `toml:"limits"`
	Logging     Logging     `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:      Server{Bind: "127.0.0.1:8080"},
		Blob:        Blob{Driver: "fs", FSRoot: "./blobdata"},
		Persistence: Persistence{Driver: "sqlite", SQLitePath: "scormhost.db"},
		Limits:      Limits{MaxPackageBytes: 100 << 20},
		Logging:     Logging{Level: "info", Format: "text"},
	}
}

// Load reads the TOML file at path, layered over defaults. A missing file is
// not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch strings.ToLower(c.Blob.Driver) {
	case "", "fs", "memory":
	case "s3":
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("blob: s3 driver requires s3_bucket")
		}
	default:
		return fmt.Errorf("blob: unknown driver %q", c.Blob.Driver)
	}
	switch strings.ToLower(c.Persistence.Driver) {
	case "", "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("persistence: unknown driver %q", c.Persistence.Driver)
	}
	if c.Limits.MaxPackageBytes < 0 {
		return fmt.Errorf("limits: max_package_bytes must be non-negative")
	}
	return nil
}

// Sample returns the embedded sample configuration document.
func Sample() string { return sampleConfig }
