package service

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"perpsign/shared"
)

// Config holds service configuration. Nothing here is secret; keys only
// ever arrive in request bodies.
type Config struct {
	ListenAddr   string        `env:"PERPSIGN_LISTEN_ADDR"    envDefault:"127.0.0.1:8787"`
	ChainID      string        `env:"PERPSIGN_CHAIN_ID"       envDefault:"SN_MAIN"`
	ReadTimeout  time.Duration `env:"PERPSIGN_READ_TIMEOUT"   envDefault:"5s"`
	MaxBodyBytes int64         `env:"PERPSIGN_MAX_BODY_BYTES" envDefault:"65536"`
	LogLevel     string        `env:"LOG_LEVEL"               envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT"`

	// Version is reported by /health; set from build metadata.
	Version string
}

// LoadConfig reads dotenvPath into the process environment when the file
// exists, then parses Config from the environment. Variables already set
// take precedence over the file.
func LoadConfig(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address required")
	}
	if err := shared.ValidateChainID(c.ChainID); err != nil {
		return fmt.Errorf("invalid chain id: %w", err)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log format must be json or console, got %q", c.LogFormat)
	}
	return nil
}
