// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mail drop server.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	SMTP    SMTPConfig    `yaml:"smtp"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// SMTPConfig holds listener and protocol configuration.
type SMTPConfig struct {
	Listen   string `yaml:"listen"`
	Hostname string `yaml:"hostname"`

	// SenderSuffix is the domain suffix envelope senders must carry.
	// Recipient addresses are never checked against it.
	SenderSuffix string `yaml:"sender_suffix"`
}

// StoreConfig selects and configures the message persistence backend.
type StoreConfig struct {
	// Backend is "file" or "stdout".
	Backend string `yaml:"backend"`

	// Dir is the directory the file backend writes records into.
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Listen = ":6013"
	c.SMTP.Hostname = "localhost"
	c.SMTP.SenderSuffix = "usyd.edu.au"
	c.Store.Backend = "file"
	c.Store.Dir = "emails"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILDROP_LISTEN"); v != "" {
		c.SMTP.Listen = v
	}
	if v := os.Getenv("MAILDROP_HOSTNAME"); v != "" {
		c.SMTP.Hostname = v
	}
	if v := os.Getenv("MAILDROP_SENDER_SUFFIX"); v != "" {
		c.SMTP.SenderSuffix = v
	}
	if v := os.Getenv("MAILDROP_STORE"); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("MAILDROP_MAIL_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
