package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "dispatch.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DISPATCH_PORT")
	setString(&cfg.Server.CORSOrigin, "DISPATCH_CORS_ORIGIN")
	setString(&cfg.Bus.Provider, "DISPATCH_BUS_PROVIDER")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Catalog.AgentsFile, "DISPATCH_AGENTS_FILE")
	setDuration(&cfg.Webhook.Timeout, "DISPATCH_WEBHOOK_TIMEOUT")
	setInt64(&cfg.Webhook.MaxConcurrent, "DISPATCH_WEBHOOK_MAX_CONCURRENT")
	setInt(&cfg.Breaker.MaxFailures, "DISPATCH_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "DISPATCH_BREAKER_TIMEOUT")
	setString(&cfg.Logging.Level, "DISPATCH_LOG_LEVEL")
	setString(&cfg.Logging.Service, "DISPATCH_LOG_SERVICE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Bus.Provider != BusProviderLocal && cfg.Bus.Provider != BusProviderNATS {
		return fmt.Errorf("bus.provider must be %q or %q", BusProviderLocal, BusProviderNATS)
	}
	if cfg.Bus.Provider == BusProviderNATS && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when bus.provider is nats")
	}
	if cfg.Catalog.AgentsFile == "" {
		return errors.New("catalog.agents_file is required")
	}
	if cfg.Webhook.Timeout <= 0 {
		return errors.New("webhook.timeout must be > 0")
	}
	if cfg.Webhook.MaxConcurrent < 1 {
		return errors.New("webhook.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
