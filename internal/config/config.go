// Package config loads simulator settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

// Config holds every tunable of the simulator. Environment variables are
// read first; a YAML file, when given, overrides them; command flags
// override both.
type Config struct {
	File string `env:"LEAGUESIM_CONFIG" yaml:"-"`

	DrawFactor        float64 `env:"LEAGUESIM_DRAW_FACTOR"         envDefault:"0.53"  yaml:"draw_factor"`
	HomeAdvantage     float64 `env:"LEAGUESIM_HOME_ADVANTAGE"      envDefault:"1.2"   yaml:"home_advantage"`
	TieSimulations    int     `env:"LEAGUESIM_TIE_SIMULATIONS"     envDefault:"10000" yaml:"tie_simulations"`
	SeasonSimulations int     `env:"LEAGUESIM_SEASON_SIMULATIONS"  envDefault:"100"   yaml:"season_simulations"`
	Seed              int64   `env:"LEAGUESIM_SEED"                yaml:"seed"`

	DatabaseDriver string `env:"LEAGUESIM_DB_DRIVER" envDefault:"sqlite"       yaml:"db_driver"`
	DatabaseURL    string `env:"LEAGUESIM_DB_URL"    envDefault:"leaguesim.db" yaml:"db_url"`

	HTTPAddr string `env:"LEAGUESIM_HTTP_ADDR" envDefault:":8080" yaml:"http_addr"`
	LogLevel string `env:"LEAGUESIM_LOG_LEVEL" envDefault:"info"  yaml:"log_level"`
}

// Load parses the environment and, if a config file is named there, the
// file on top of it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.File != "" {
		if err := cfg.LoadFile(cfg.File); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path. Keys missing from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.File = path
	return nil
}

// Validate reports the first setting a simulation cannot run with.
func (c Config) Validate() error {
	if err := c.Model().Validate(); err != nil {
		return err
	}
	switch {
	case c.TieSimulations <= 0:
		return fmt.Errorf("tie simulations must be positive, got %d", c.TieSimulations)
	case c.SeasonSimulations <= 0:
		return fmt.Errorf("season simulations must be positive, got %d", c.SeasonSimulations)
	}
	switch c.DatabaseDriver {
	case store.DriverPostgres, store.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("database url is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Model returns the outcome model described by the config.
func (c Config) Model() league.Model {
	return league.Model{DrawFactor: c.DrawFactor, HomeAdvantage: c.HomeAdvantage}
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
