package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Local is the configuration file format for the chronos-sync CLI, which
// runs the planning core against local .ics files without any cloud
// collaborators.
type Local struct {
	LeadMinutes      int           `yaml:"lead_minutes"`
	LookaheadDays    int           `yaml:"lookahead_days"`
	FallbackTimezone string        `yaml:"fallback_timezone"`
	NATS             LocalNATS     `yaml:"nats"`
	Logging          LoggingConfig `yaml:"logging"`

	// FallbackZone is resolved from FallbackTimezone during validation.
	FallbackZone *time.Location `yaml:"-"`
}

// LocalNATS configures the optional local message transport.
type LocalNATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultLocal returns a CLI configuration with every setting at its
// default, for runs without a config file.
func DefaultLocal() *Local {
	cfg := &Local{}
	// Zero values take their defaults; nothing here can fail validation.
	_ = cfg.validate()
	return cfg
}

// LoadLocal reads and validates a CLI configuration file.
func LoadLocal(path string) (*Local, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Local
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Local) validate() error {
	if c.LeadMinutes == 0 {
		c.LeadMinutes = defaultLeadMinutes
	}
	if c.LeadMinutes < minLeadMinutes || c.LeadMinutes > maxLeadMinutes {
		return &ConfigError{
			Setting: "lead_minutes",
			Reason:  fmt.Sprintf("must be between %d and %d", minLeadMinutes, maxLeadMinutes),
		}
	}

	if c.LookaheadDays == 0 {
		c.LookaheadDays = defaultLookaheadDays
	}
	if c.LookaheadDays < 0 {
		return &ConfigError{Setting: "lookahead_days", Reason: "must be a positive integer"}
	}

	if c.FallbackTimezone == "" {
		c.FallbackTimezone = defaultFallbackZone
	}
	loc, err := time.LoadLocation(c.FallbackTimezone)
	if err != nil {
		return &ConfigError{Setting: "fallback_timezone", Reason: fmt.Sprintf("unknown timezone %q", c.FallbackTimezone)}
	}
	c.FallbackZone = loc

	if c.NATS.URL != "" && c.NATS.Subject == "" {
		c.NATS.Subject = "calendar.reminders"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}
