// Package config loads revlens settings from defaults, a YAML file and
// REVLENS_* environment variables, and builds the components they describe.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is the prefix of environment overrides. REVLENS_DATABASE_DSN
// sets database.dsn.
const EnvPrefix = "REVLENS_"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"revlens.yaml",
	"revlens.yml",
	"configs/revlens.yaml",
}

// Config is the full revlens configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Lexicon  FileConfig     `koanf:"lexicon"`
	Taxonomy FileConfig     `koanf:"taxonomy"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
	Profile  ProfileConfig  `koanf:"profile"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Report   ReportConfig   `koanf:"report"`
}

// DatabaseConfig selects the review database.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" validate:"oneof=sqlite mysql"`
	DSN             string        `koanf:"dsn" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// CacheConfig selects where product profile snapshots are persisted.
// Backend none keeps them in memory only.
type CacheConfig struct {
	Backend string `koanf:"backend" validate:"oneof=file badger sql none"`
	Path    string `koanf:"path"`
	Name    string `koanf:"name"`
}

// FileConfig points at an optional YAML file. Empty means built-in defaults.
type FileConfig struct {
	Path string `koanf:"path"`
}

// AnalyzerConfig selects the morphological analyzer.
type AnalyzerConfig struct {
	Kind          string        `koanf:"kind" validate:"oneof=dict remote"`
	Dictionary    string        `koanf:"dictionary"`
	URL           string        `koanf:"url" validate:"omitempty,url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second" validate:"min=0"`
	Burst         int           `koanf:"burst" validate:"min=0"`
}

// ProfileConfig tunes profile building.
type ProfileConfig struct {
	Workers       int `koanf:"workers" validate:"min=1,max=256"`
	ProgressEvery int `koanf:"progress_every" validate:"min=1"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ReportConfig configures improvement report output.
type ReportConfig struct {
	Dir  string `koanf:"dir" validate:"required"`
	TopN int    `koanf:"top_n" validate:"min=1,max=50"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "data/reviews.db",
			MaxOpenConns:    50,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		},
		Cache: CacheConfig{
			Backend: "file",
			Path:    "data/product_profiles.json",
		},
		Analyzer: AnalyzerConfig{
			Kind:    "dict",
			Timeout: 5 * time.Second,
			Burst:   1,
		},
		Profile: ProfileConfig{
			Workers:       4,
			ProgressEvery: 20,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Report: ReportConfig{
			Dir:  "reports",
			TopN: 5,
		},
	}
}

// Load reads .env, then layers defaults, the config file and REVLENS_*
// environment variables, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFile(findConfigFile())
}

// LoadFile is Load without .env handling and with an explicit config file.
// An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w: %w", path, internalerr.ErrInvalidConfig, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w: %w", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps REVLENS_PROFILE_PROGRESS_EVERY to profile.progress_every
// using the known key set, since keys themselves contain underscores.
// Unknown variables are ignored.
func envTransform(keys []string) func(string) string {
	known := make(map[string]string, len(keys))
	for _, k := range keys {
		known[strings.ReplaceAll(k, ".", "_")] = k
	}
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return known[s]
	}
}
