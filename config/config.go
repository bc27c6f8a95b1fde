/*
Package config loads server configuration from an optional YAML file,
a .env file, and environment variables (highest precedence).

RESOLUTION ORDER:
  1. Built-in defaults
  2. YAML file (COST_ENGINE_CONFIG, or ./cost-engine.yaml if present)
  3. Environment variables (COST_ENGINE_PORT, COST_ENGINE_HOST,
     COST_ENGINE_DB, COST_ENGINE_SCHEDULER)

A .env file in the working directory is loaded into the environment first;
a missing .env is not an error.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type SchedulerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval time.Duration `yaml:"checkInterval"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load resolves the configuration.
func Load() (Config, error) {
	// Missing .env is fine; only populate the environment when present.
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "costs.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			CheckInterval: time.Hour,
		},
	}

	path := os.Getenv("COST_ENGINE_CONFIG")
	if path == "" {
		if _, err := os.Stat("cost-engine.yaml"); err == nil {
			path = "cost-engine.yaml"
		}
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("COST_ENGINE_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("COST_ENGINE_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COST_ENGINE_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if db := os.Getenv("COST_ENGINE_DB"); db != "" {
		cfg.DB.Path = db
	}
	if sched := os.Getenv("COST_ENGINE_SCHEDULER"); sched != "" {
		enabled, err := strconv.ParseBool(sched)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COST_ENGINE_SCHEDULER: %w", err)
		}
		cfg.Scheduler.Enabled = enabled
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
