// Package main provides the CamSentry server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Auth         AuthConfig         `yaml:"auth"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	Verbose      bool               `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listen addresses.
type ServerConfig struct {
	Address        string `yaml:"address"`         // HTTP listen address (default: :5000)
	MetricsAddress string `yaml:"metrics_address"` // Prometheus listen address (default: :9091)
}

// AuthConfig contains the viewer login credential pair. Empty username
// disables the login endpoint.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// IntegrationsConfig groups the outbound integrations.
type IntegrationsConfig struct {
	Nextcloud NextcloudConfig `yaml:"nextcloud"`
	Pushover  PushoverConfig  `yaml:"pushover"`
	Suricata  SuricataConfig  `yaml:"suricata"`
}

// NextcloudConfig contains WebDAV upload settings. Intervals are duration
// strings ("5s", "2m") parsed at validation time.
type NextcloudConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	MotionFolder string `yaml:"motion_folder"` // default: motion_captures
	VideoFolder  string `yaml:"video_folder"`  // default: recordings
	SaveInterval string `yaml:"save_interval"` // default: 5s
}

// PushoverConfig contains push notification settings.
type PushoverConfig struct {
	Enabled        bool   `yaml:"enabled"`
	UserKey        string `yaml:"user_key"`
	APIToken       string `yaml:"api_token"`
	NotifyInterval string `yaml:"notify_interval"` // default: 60s
	Priority       int    `yaml:"priority"`
	Sound          string `yaml:"sound"`
}

// SuricataConfig contains Event Monitor settings.
type SuricataConfig struct {
	Enabled            bool   `yaml:"enabled"`
	EveLogPath         string `yaml:"eve_log_path"` // default: /var/log/suricata/eve.json
	MaxAlerts          int    `yaml:"max_alerts"`   // default: 100
	MaxEvents          int    `yaml:"max_events"`   // default: 200
	AlertNotifications bool   `yaml:"alert_notifications"`
	NotifyOnSeverity   int    `yaml:"notify_on_severity"` // default: 1
}

// Environment variables that override file values.
const (
	envPort         = "CAMSENTRY_PORT"
	envAuthUser     = "CAMSENTRY_AUTH_USER"
	envAuthPassword = "CAMSENTRY_AUTH_PASSWORD"
)

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if port := os.Getenv(envPort); port != "" {
		c.Server.Address = ":" + port
	}
	if user := os.Getenv(envAuthUser); user != "" {
		c.Auth.Username = user
	}
	if pass := os.Getenv(envAuthPassword); pass != "" {
		c.Auth.Password = pass
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":5000"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9091"
	}
	if c.Integrations.Nextcloud.MotionFolder == "" {
		c.Integrations.Nextcloud.MotionFolder = "motion_captures"
	}
	if c.Integrations.Nextcloud.VideoFolder == "" {
		c.Integrations.Nextcloud.VideoFolder = "recordings"
	}
	if c.Integrations.Nextcloud.SaveInterval == "" {
		c.Integrations.Nextcloud.SaveInterval = "5s"
	}
	if c.Integrations.Pushover.NotifyInterval == "" {
		c.Integrations.Pushover.NotifyInterval = "60s"
	}
	if c.Integrations.Suricata.EveLogPath == "" {
		c.Integrations.Suricata.EveLogPath = "/var/log/suricata/eve.json"
	}
	if c.Integrations.Suricata.MaxAlerts == 0 {
		c.Integrations.Suricata.MaxAlerts = 100
	}
	if c.Integrations.Suricata.MaxEvents == 0 {
		c.Integrations.Suricata.MaxEvents = 200
	}
	if c.Integrations.Suricata.NotifyOnSeverity == 0 {
		c.Integrations.Suricata.NotifyOnSeverity = 1
	}
}

// SaveIntervalDuration returns the parsed upload throttle interval.
// Validate guarantees parseability.
func (c *NextcloudConfig) SaveIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SaveInterval)
	return d
}

// NotifyIntervalDuration returns the parsed notification throttle interval.
func (c *PushoverConfig) NotifyIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.NotifyInterval)
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if _, err := time.ParseDuration(c.Integrations.Nextcloud.SaveInterval); err != nil {
		return fmt.Errorf("integrations.nextcloud.save_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Integrations.Pushover.NotifyInterval); err != nil {
		return fmt.Errorf("integrations.pushover.notify_interval: %w", err)
	}
	if c.Integrations.Nextcloud.Enabled {
		if c.Integrations.Nextcloud.URL == "" {
			return fmt.Errorf("integrations.nextcloud.url is required when nextcloud is enabled")
		}
		if c.Integrations.Nextcloud.Username == "" {
			return fmt.Errorf("integrations.nextcloud.username is required when nextcloud is enabled")
		}
		if c.Integrations.Nextcloud.Password == "" {
			return fmt.Errorf("integrations.nextcloud.password is required when nextcloud is enabled")
		}
	}
	if c.Integrations.Pushover.Enabled {
		if c.Integrations.Pushover.UserKey == "" {
			return fmt.Errorf("integrations.pushover.user_key is required when pushover is enabled")
		}
		if c.Integrations.Pushover.APIToken == "" {
			return fmt.Errorf("integrations.pushover.api_token is required when pushover is enabled")
		}
	}
	return nil
}
