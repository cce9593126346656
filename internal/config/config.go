//-------------------------------------------------------------------------
//
// pgEdge Tick Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-tickpipe.
// Configuration is layered: defaults, then a config file, then environment
// variables (a local .env file is honored), then CLI flags. Later layers
// take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-tickpipe.
type Config struct {
	// Connection is a full PostgreSQL connection string. When set it
	// overrides the Database block.
	Connection string `mapstructure:"connection"`

	// StagingDir is the root of the staging area. Raw batches, the
	// consumed-batch archive, and the transformed table live beneath it.
	StagingDir string `mapstructure:"staging_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Database holds discrete connection parameters, used when
	// Connection is empty. Each field is also bound to the conventional
	// POSTGRES_* environment variable.
	Database DatabaseConfig `mapstructure:"database"`

	// Generate holds configuration for the generate stage.
	Generate GenerateConfig `mapstructure:"generate"`

	// Run holds configuration for the composite run command.
	Run RunConfig `mapstructure:"run"`
}

// DatabaseConfig holds discrete PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GenerateConfig holds configuration for synthetic tick generation.
type GenerateConfig struct {
	// Count is the number of ticks per batch.
	Count int `mapstructure:"count"`

	// Symbols is the universe ticks draw their symbol from.
	Symbols []string `mapstructure:"symbols"`

	// Weights optionally skews the symbol draw. When present it must
	// have one non-negative entry per symbol and a positive sum.
	Weights []int `mapstructure:"weights"`

	// PriceMin and PriceMax bound the generated price. Both must be
	// positive.
	PriceMin float64 `mapstructure:"price_min"`
	PriceMax float64 `mapstructure:"price_max"`

	// VolumeMin and VolumeMax bound the generated volume.
	VolumeMin int64 `mapstructure:"volume_min"`
	VolumeMax int64 `mapstructure:"volume_max"`

	// BadTickRate is the probability (0..1) that a tick is deliberately
	// malformed (zero price) to exercise downstream validation.
	BadTickRate float64 `mapstructure:"bad_tick_rate"`

	// Seed fixes the random source for reproducible batches (0 = seed
	// from the clock).
	Seed uint64 `mapstructure:"seed"`
}

// RunConfig holds configuration for the composite pipeline runner.
type RunConfig struct {
	// Interval is the number of seconds between pipeline runs
	// (0 = run once and exit).
	Interval int `mapstructure:"interval"`

	// Cycles is the number of pipeline runs when Interval is set
	// (0 = run until interrupted).
	Cycles int `mapstructure:"cycles"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		StagingDir: "data/stock",
		LogLevel:   "info",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "postgres",
			SSLMode: "prefer",
		},
		Generate: GenerateConfig{
			Count:     10,
			Symbols:   []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"},
			PriceMin:  100,
			PriceMax:  500,
			VolumeMin: 1000,
			VolumeMax: 1000000,
		},
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-tickpipe.yaml
// 3. ~/.config/pgedge-tickpipe/config.yaml
// A ./.env file, when present, is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	// Populate the environment from .env; existing variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and type
	v.SetConfigName("pgedge-tickpipe")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-tickpipe"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Conventional PostgreSQL environment variables override the file.
	bindings := map[string]string{
		"database.host":     "POSTGRES_HOST",
		"database.port":     "POSTGRES_PORT",
		"database.user":     "POSTGRES_USER",
		"database.password": "POSTGRES_PASSWORD",
		"database.dbname":   "POSTGRES_DB",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file and environment values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration required by every command.
func (c *Config) Validate() error {
	if c.StagingDir == "" {
		return fmt.Errorf("staging directory is required")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate stage.
func (c *Config) ValidateGenerate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	g := c.Generate
	if g.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if len(g.Symbols) == 0 {
		return fmt.Errorf("symbol universe must not be empty")
	}
	if len(g.Weights) > 0 {
		if len(g.Weights) != len(g.Symbols) {
			return fmt.Errorf("weights must have one entry per symbol (%d != %d)",
				len(g.Weights), len(g.Symbols))
		}
		sum := 0
		for _, w := range g.Weights {
			if w < 0 {
				return fmt.Errorf("weights must be non-negative")
			}
			sum += w
		}
		if sum < 1 {
			return fmt.Errorf("weights must sum to a positive value")
		}
	}
	if g.PriceMin <= 0 || g.PriceMax < g.PriceMin {
		return fmt.Errorf("price bounds must satisfy 0 < price_min <= price_max")
	}
	if g.VolumeMin < 0 || g.VolumeMax < g.VolumeMin {
		return fmt.Errorf("volume bounds must satisfy 0 <= volume_min <= volume_max")
	}
	if g.BadTickRate < 0 || g.BadTickRate >= 1 {
		return fmt.Errorf("bad_tick_rate must be in [0, 1)")
	}
	return nil
}

// ValidateLoad checks configuration required for the load stage.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Connection != "" {
		return nil
	}
	d := c.Database
	if d.Host == "" || d.User == "" || d.DBName == "" {
		return fmt.Errorf("either a connection string or database host, user, and dbname are required")
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("database port %d is out of range", d.Port)
	}
	return nil
}

// ValidateRun checks configuration required for the composite run command.
func (c *Config) ValidateRun() error {
	if err := c.ValidateGenerate(); err != nil {
		return err
	}
	if err := c.ValidateLoad(); err != nil {
		return err
	}
	if c.Run.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}
	if c.Run.Cycles < 0 {
		return fmt.Errorf("cycles must be non-negative")
	}
	if c.Run.Interval == 0 && c.Run.Cycles > 1 {
		return fmt.Errorf("cycles > 1 requires an interval")
	}
	return nil
}
