// Package config loads the CLI configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config describes how the CLI connects to a chain. The signing key is never
// stored in the file; only the name of the environment variable holding it.
type Config struct {
	RPCURL        string `toml:"RPCURL"`
	PrivateKeyEnv string `toml:"PrivateKeyEnv"`
	LogLevel      string `toml:"LogLevel"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("config %s: RPCURL is required", path)
	}
	if strings.TrimSpace(cfg.PrivateKeyEnv) == "" {
		cfg.PrivateKeyEnv = "AAVEGATE_PRIVATE_KEY"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// PrivateKey resolves the hex-encoded signing key from the configured
// environment variable. An empty key is valid for read-only usage.
func (c *Config) PrivateKey() string {
	return strings.TrimSpace(os.Getenv(c.PrivateKeyEnv))
}
