// Package config loads the runtime configuration from YAML and supports
// hot reload via filesystem notification.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tickwise/cortex/internal/provider"
)

// SimConfig controls the headless simulation harness.
type SimConfig struct {
	Agents   int     `yaml:"agents"`
	TickHz   float64 `yaml:"tick_hz"`
	Duration float64 `yaml:"duration_seconds"` // 0 means run until interrupted
}

// Config holds the full runtime configuration.
type Config struct {
	CooldownSeconds       float64         `yaml:"cooldown_seconds"`
	RequestTimeoutSeconds float64         `yaml:"request_timeout_seconds"`
	MaxConcurrentRequests int             `yaml:"max_concurrent_requests"`
	Provider              provider.Config `yaml:"provider"`
	Sim                   SimConfig       `yaml:"sim"`
	ListenAddr            string          `yaml:"listen_addr"`
	NatsURL               string          `yaml:"nats_url"`
	OtelEndpoint          string          `yaml:"otel_endpoint"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		CooldownSeconds:       15,
		RequestTimeoutSeconds: 30,
		MaxConcurrentRequests: 4,
		Provider: provider.Config{
			ID:       "default",
			Name:     "local-ollama",
			Type:     "ollama",
			Endpoint: "http://localhost:11434",
			Model:    "llama3.2",
		},
		Sim: SimConfig{
			Agents: 4,
			TickHz: 10,
		},
		ListenAddr: ":8080",
	}
}

// Load reads a YAML config file, applying defaults for missing fields.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot use.
func (c *Config) Validate() error {
	if c.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown_seconds must not be negative, got %v", c.CooldownSeconds)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got %v", c.RequestTimeoutSeconds)
	}
	if c.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max_concurrent_requests must be at least 1, got %d", c.MaxConcurrentRequests)
	}
	if c.Sim.Agents < 1 {
		return fmt.Errorf("sim.agents must be at least 1, got %d", c.Sim.Agents)
	}
	if c.Sim.TickHz <= 0 {
		return fmt.Errorf("sim.tick_hz must be positive, got %v", c.Sim.TickHz)
	}
	return nil
}

// Cooldown returns the cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds * float64(time.Second))
}

// RequestTimeout returns the backend request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds * float64(time.Second))
}

// TickInterval returns the simulation tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Sim.TickHz)
}
