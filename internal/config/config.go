// Package config provides hierarchical configuration loading for the
// dispatcher. Precedence: defaults < YAML file < environment variables.
package config

import "time"

// BusProviderLocal and BusProviderNATS select the event transport at startup.
const (
	BusProviderLocal = "local"
	BusProviderNATS  = "nats"
)

// Config holds all runtime configuration for the dispatch service.
type Config struct {
	Server  Server  `yaml:"server"`
	Bus     Bus     `yaml:"bus"`
	NATS    NATS    `yaml:"nats"`
	Catalog Catalog `yaml:"catalog"`
	Webhook Webhook `yaml:"webhook"`
	Breaker Breaker `yaml:"breaker"`
	Logging Logging `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Bus selects the event transport: "local" for single-instance deployments,
// "nats" for multi-instance.
type Bus struct {
	Provider string `yaml:"provider"`
}

// NATS holds NATS JetStream configuration, used when bus.provider is "nats".
type NATS struct {
	URL string `yaml:"url"`
}

// Catalog holds the agent catalog configuration.
type Catalog struct {
	AgentsFile string `yaml:"agents_file"`
}

// Webhook holds outbound webhook execution configuration.
type Webhook struct {
	Timeout       time.Duration `yaml:"timeout"`        // per-call deadline
	MaxConcurrent int64         `yaml:"max_concurrent"` // cap on in-flight dispatches from the listener
}

// Breaker holds circuit breaker configuration for webhook providers.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Bus: Bus{
			Provider: BusProviderLocal,
		},
		NATS: NATS{
			URL: "nats://localhost:4222",
		},
		Catalog: Catalog{
			AgentsFile: "agents.yaml",
		},
		Webhook: Webhook{
			Timeout:       30 * time.Second,
			MaxConcurrent: 16,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "dispatch",
		},
	}
}
