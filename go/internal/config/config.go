// Package config loads racer settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RaceService RaceServiceConfig `yaml:"race_service"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Race        RaceConfig        `yaml:"race"`
	NATS        NATSConfig        `yaml:"nats"`
	LogLevel    string            `yaml:"log_level"`
}

type RaceServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type GatewayConfig struct {
	Port            string `yaml:"port"`
	TeardownOnClose bool   `yaml:"teardown_on_close"`
}

type RaceConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	CountdownFrom     int           `yaml:"countdown_from"`
	CountdownDelay    time.Duration `yaml:"countdown_delay"`
	CountdownInterval time.Duration `yaml:"countdown_interval"`
}

type NATSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	StreamName string `yaml:"stream_name"`
}

// Default returns the settings used when neither file nor environment say
// otherwise
func Default() Config {
	return Config{
		RaceService: RaceServiceConfig{
			URL:     "http://localhost:3001",
			Timeout: 30 * time.Second,
		},
		Gateway: GatewayConfig{
			Port:            "3000",
			TeardownOnClose: true,
		},
		Race: RaceConfig{
			PollInterval:      500 * time.Millisecond,
			CountdownFrom:     3,
			CountdownDelay:    time.Second,
			CountdownInterval: time.Second,
		},
		NATS: NATSConfig{
			URL:        "nats://localhost:4222",
			StreamName: "RACE_EVENTS",
		},
		LogLevel: "info",
	}
}

// Load reads path on top of the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.RaceService.URL = getEnv("RACE_SERVICE_URL", c.RaceService.URL)
	c.RaceService.Timeout = getEnvAsDuration("RACE_SERVICE_TIMEOUT", c.RaceService.Timeout)
	c.Gateway.Port = getEnv("PORT", c.Gateway.Port)
	c.Gateway.TeardownOnClose = getEnvAsBool("GATEWAY_TEARDOWN_ON_CLOSE", c.Gateway.TeardownOnClose)
	c.Race.PollInterval = getEnvAsDuration("RACE_POLL_INTERVAL", c.Race.PollInterval)
	c.Race.CountdownFrom = getEnvAsInt("RACE_COUNTDOWN_FROM", c.Race.CountdownFrom)
	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate rejects settings the race loop cannot run with
func (c *Config) Validate() error {
	if c.RaceService.URL == "" {
		return errors.New("race_service.url is required")
	}
	if c.Race.PollInterval <= 0 {
		return fmt.Errorf("race.poll_interval must be positive, got %s", c.Race.PollInterval)
	}
	if c.Race.CountdownFrom < 0 {
		return fmt.Errorf("race.countdown_from must not be negative, got %d", c.Race.CountdownFrom)
	}
	if c.Race.CountdownDelay < 0 || c.Race.CountdownInterval <= 0 {
		return errors.New("race countdown delay and interval must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the configured zerolog level
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
