// Package config loads campaign configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the server and console binaries.
type Config struct {
	DBPath          string `yaml:"db_path"`
	APIPort         int    `yaml:"api_port"`
	AdminKey        string `yaml:"admin_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	FortuneSeed     int64  `yaml:"fortune_seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:      "data/campaign.db",
		APIPort:     8080,
		FortuneSeed: 42,
	}
}

// Load reads the config file at path (missing file falls back to defaults)
// and applies environment overrides: MYSTARA_DB, MYSTARA_PORT,
// MYSTARA_ADMIN_KEY, ANTHROPIC_API_KEY, MYSTARA_FORTUNE_SEED.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("MYSTARA_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MYSTARA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("MYSTARA_PORT: %w", err)
		}
		cfg.APIPort = port
	}
	if v := os.Getenv("MYSTARA_ADMIN_KEY"); v != "" {
		cfg.AdminKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("MYSTARA_FORTUNE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("MYSTARA_FORTUNE_SEED: %w", err)
		}
		cfg.FortuneSeed = seed
	}

	return cfg, nil
}
