// Package config loads settings from an optional YAML file with
// environment variable overrides. Environment always wins, so secrets
// like the Discord token never have to live in the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
	OwnerID   string `yaml:"owner_id"`
}

// HealthConfig holds self-monitoring thresholds.
type HealthConfig struct {
	CPUPercent float64 `yaml:"cpu_percent"`
	RSSMB      int     `yaml:"rss_mb"`
}

// Config is the full bot configuration. Durations are plain seconds in
// the file to keep the YAML format boring.
type Config struct {
	Discord   DiscordConfig `yaml:"discord"`
	StatePath string        `yaml:"state_path"`
	Timezone  string        `yaml:"timezone"`
	Columns   int           `yaml:"columns"`

	ActionTTLSeconds      int `yaml:"action_ttl_seconds"`
	ActionMaxItems        int `yaml:"action_max_items"`
	ActionMaxPayloadBytes int `yaml:"action_max_payload_bytes"`
	WizardTimeoutSeconds int `yaml:"wizard_timeout_seconds"`
	LastStateTTLHours    int `yaml:"last_state_ttl_hours"`
	PollIntervalSeconds  int `yaml:"poll_interval_seconds"`
	MaxFutureDays        int `yaml:"max_future_days"`

	Health HealthConfig `yaml:"health"`
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *Config {
	return &Config{
		StatePath:            "state",
		Timezone:             "UTC",
		Columns:              2,
		ActionTTLSeconds:      900,
		ActionMaxItems:        2000,
		ActionMaxPayloadBytes: 2048,
		WizardTimeoutSeconds: 900,
		LastStateTTLHours:    7 * 24,
		PollIntervalSeconds:  15,
		MaxFutureDays:        365,
		Health: HealthConfig{
			CPUPercent: 80,
			RSSMB:      512,
		},
	}
}

// Load reads the YAML file at path (missing file is fine) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// nothing to merge
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Discord.Token, "DISCORD_TOKEN")
	setString(&c.Discord.ChannelID, "DISCORD_CHANNEL_ID")
	setString(&c.Discord.OwnerID, "DISCORD_OWNER_ID")
	setString(&c.StatePath, "STATE_PATH")
	setString(&c.Timezone, "TIMEZONE")
	setInt(&c.Columns, "KEYBOARD_COLUMNS")
	setInt(&c.ActionTTLSeconds, "ACTION_TTL_SECONDS")
	setInt(&c.WizardTimeoutSeconds, "WIZARD_TIMEOUT_SECONDS")
}

func (c *Config) validate() error {
	if c.Columns < 1 {
		return fmt.Errorf("columns must be at least 1, got %d", c.Columns)
	}
	if c.ActionTTLSeconds < 1 {
		return fmt.Errorf("action_ttl_seconds must be positive, got %d", c.ActionTTLSeconds)
	}
	if c.ActionMaxItems < 1 {
		return fmt.Errorf("action_max_items must be positive, got %d", c.ActionMaxItems)
	}
	if c.WizardTimeoutSeconds < 1 {
		return fmt.Errorf("wizard_timeout_seconds must be positive, got %d", c.WizardTimeoutSeconds)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("bad timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// ActionTTL returns the token store TTL.
func (c *Config) ActionTTL() time.Duration {
	return time.Duration(c.ActionTTLSeconds) * time.Second
}

// WizardTimeout returns the dialog inactivity timeout.
func (c *Config) WizardTimeout() time.Duration {
	return time.Duration(c.WizardTimeoutSeconds) * time.Second
}

// LastStateTTL returns how long conversational referents stay fresh.
func (c *Config) LastStateTTL() time.Duration {
	return time.Duration(c.LastStateTTLHours) * time.Hour
}

// PollInterval returns the reminder scheduler cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}
