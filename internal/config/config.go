package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the navgrid service and tools.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Regions    RegionsConfig    `yaml:"regions"`
	Precompute PrecomputeConfig `yaml:"precompute"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`

	LogLevel  string `yaml:"log_level"` // debug, info, warn, error
	ReportDir string `yaml:"report_dir"`
}

// GridConfig selects the grid source: a snapshot file, or a random grid.
type GridConfig struct {
	Snapshot           string  `yaml:"snapshot"`
	Width              int     `yaml:"width"`
	Height             int     `yaml:"height"`
	ObstaclePercentage float64 `yaml:"obstacle_percentage"`
	Seed               uint64  `yaml:"seed"` // 0 = time-based
}

// RegionsConfig holds region tile dimensions in cells.
type RegionsConfig struct {
	TileWidth  float64 `yaml:"tile_width"`
	TileHeight float64 `yaml:"tile_height"`
}

// PrecomputeConfig controls route table construction at startup.
type PrecomputeConfig struct {
	Enabled  bool `yaml:"enabled"`
	Parallel bool `yaml:"parallel"`
	Workers  int  `yaml:"workers"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds the query endpoint settings.
type ServerConfig struct {
	BindAddress  string        `yaml:"bind_address"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		Grid: GridConfig{
			Width:              100,
			Height:             100,
			ObstaclePercentage: 30,
		},
		Regions: RegionsConfig{
			TileWidth:  9,
			TileHeight: 9,
		},
		Precompute: PrecomputeConfig{
			Enabled:  true,
			Parallel: true,
			Workers:  4,
		},
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "navgrid",
			Password: "navgrid",
			DBName:   "navgrid",
			SSLMode:  "disable",
		},
		Server: ServerConfig{
			BindAddress:  "0.0.0.0",
			Port:         8080,
			ReadTimeout:  120 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		LogLevel:  "info",
		ReportDir: "reports",
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the pathfinder cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Grid.Snapshot == "" && (c.Grid.Width <= 0 || c.Grid.Height <= 0) {
		errs = append(errs, fmt.Errorf("grid: width and height must be positive without a snapshot, got %dx%d",
			c.Grid.Width, c.Grid.Height))
	}
	if c.Grid.ObstaclePercentage < 0 || c.Grid.ObstaclePercentage > 100 {
		errs = append(errs, fmt.Errorf("grid: obstacle_percentage must be in [0,100], got %g", c.Grid.ObstaclePercentage))
	}
	if !(c.Regions.TileWidth >= 1) || !(c.Regions.TileHeight >= 1) ||
		math.IsInf(c.Regions.TileWidth, 0) || math.IsInf(c.Regions.TileHeight, 0) {
		errs = append(errs, fmt.Errorf("regions: tile size must be finite and >= 1, got %gx%g",
			c.Regions.TileWidth, c.Regions.TileHeight))
	}
	if c.Precompute.Parallel && c.Precompute.Workers < 1 {
		errs = append(errs, fmt.Errorf("precompute: workers must be >= 1, got %d", c.Precompute.Workers))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level: unknown level %q", s)
	}
}
