// Package config provides configuration structs and utilities for the rentfall application.
package config

import (
	"errors"
	"fmt"
)

// Config represents the root configuration for the rentfall application.
type Config struct {
	Rules         RulesConfig         `yaml:"rules"`
	Logging       LoggingConfig       `yaml:"logging"`
	History       HistoryConfig       `yaml:"history"`
	Observability ObservabilityConfig `yaml:"observability"`
	Simulation    SimulationConfig    `yaml:"simulation"`
}

// RulesConfig holds configuration for rule definition loading.
type RulesConfig struct {
	Directory string `yaml:"directory"`
	Watch     bool   `yaml:"watch"` // Reload rule files on change
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// HistoryConfig holds configuration for execution history retention.
type HistoryConfig struct {
	Capacity int    `yaml:"capacity"` // In-memory ring size
	Archive  bool   `yaml:"archive"`  // Persist executions to SQLite
	Path     string `yaml:"path"`     // Archive database path
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// SimulationConfig holds configuration for the interactive simulation host.
type SimulationConfig struct {
	Seed     int64 `yaml:"seed"`      // 0 means time-based seeding
	StartDay int   `yaml:"start_day"` // Day the simulated game starts on
}

// Default configuration values.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultRulesDirectory  = "~/.rentfall/rules"
	DefaultHistoryCapacity = 100
	DefaultHistoryPath     = "~/.rentfall/history.db"
	DefaultStartDay        = 1

	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "rentfall"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Directory: DefaultRulesDirectory,
			Watch:     false,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		History: HistoryConfig{
			Capacity: DefaultHistoryCapacity,
			Archive:  false,
			Path:     DefaultHistoryPath,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
		Simulation: SimulationConfig{
			Seed:     0,
			StartDay: DefaultStartDay,
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rules: %w", err))
	}
	if err := c.History.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}
	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks the logging configuration.
func (c *LoggingConfig) Validate() error {
	if !validLogLevels[c.Level] {
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", c.Level)
	}
	if !validLogFormats[c.Format] {
		return fmt.Errorf("invalid log format %q (must be json or text)", c.Format)
	}
	return nil
}

// Validate checks the rules configuration.
func (c *RulesConfig) Validate() error {
	if c.Directory == "" {
		return errors.New("directory must not be empty")
	}
	return nil
}

// Validate checks the history configuration.
func (c *HistoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.Archive && c.Path == "" {
		return errors.New("path must be set when archive is enabled")
	}
	return nil
}

// Validate checks the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks the tracing configuration.
func (c *TracingConfig) Validate() error {
	if !validTracingExporterTypes[c.ExporterType] {
		return fmt.Errorf("invalid exporter type %q (must be none, stdout, or otlp)", c.ExporterType)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0.0 and 1.0, got %f", c.SampleRate)
	}
	if c.Enabled && c.ExporterType == "otlp" && c.OTLPEndpoint == "" {
		return errors.New("otlp_endpoint must be set when exporter type is otlp")
	}
	return nil
}

// Validate checks the simulation configuration.
func (c *SimulationConfig) Validate() error {
	if c.StartDay < 0 {
		return fmt.Errorf("start day must not be negative, got %d", c.StartDay)
	}
	return nil
}
