// Package config provides configuration structures and loading for ShopSync.
package config

import "fmt"

// Config represents the complete application configuration.
type Config struct {
	Store              string              `yaml:"store" mapstructure:"store"`
	AccessToken        string              `yaml:"access_token" mapstructure:"access_token"`
	APIVersion         string              `yaml:"api_version" mapstructure:"api_version"`
	StartDate          string              `yaml:"start_date" mapstructure:"start_date"` // RFC3339 or YYYY-MM-DD
	Bulk               bool                `yaml:"bulk" mapstructure:"bulk"`
	IgnoreAccessDenied bool                `yaml:"ignore_access_denied" mapstructure:"ignore_access_denied"`
	IgnoreDeprecated   bool                `yaml:"ignore_deprecated" mapstructure:"ignore_deprecated"`
	Entities           []string            `yaml:"entities" mapstructure:"entities"` // empty = all discovered
	Select             map[string][]string `yaml:"select" mapstructure:"select"`     // entity -> selected fields
	HTTP               HTTPConfig          `yaml:"http" mapstructure:"http"`
	Poll               PollConfig          `yaml:"poll" mapstructure:"poll"`
	State              StateConfig         `yaml:"state" mapstructure:"state"`
	Logging            LoggingConfig       `yaml:"logging" mapstructure:"logging"`
}

// HTTPConfig represents transport settings for the GraphQL endpoint.
type HTTPConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// PollConfig represents the bulk job polling settings.
type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds" mapstructure:"interval_seconds"`
	TimeoutSeconds  int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// StateConfig represents checkpoint persistence settings.
type StateConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // sqlite database file
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		APIVersion:         "2023-04",
		IgnoreAccessDenied: true,
		IgnoreDeprecated:   true,
		HTTP: HTTPConfig{
			TimeoutSeconds: 120,
		},
		Poll: PollConfig{
			IntervalSeconds: 10,
			TimeoutSeconds:  1800,
		},
		State: StateConfig{
			Path: "shopsync.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// Endpoint returns the GraphQL endpoint URL for the configured store and API version.
func (c *Config) Endpoint() string {
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", c.Store, c.APIVersion)
}

// SelectedFields returns the configured field selection for an entity.
// A nil result means every discovered field is selected.
func (c *Config) SelectedFields(entity string) []string {
	if c.Select == nil {
		return nil
	}
	return c.Select[entity]
}

// EntityEnabled reports whether an entity should be synced. An empty
// entities list enables everything discovery returns.
func (c *Config) EntityEnabled(name string) bool {
	if len(c.Entities) == 0 {
		return true
	}
	for _, e := range c.Entities {
		if e == name {
			return true
		}
	}
	return false
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, pollInterval, pollTimeout int, bulk bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if pollInterval > 0 {
		c.Poll.IntervalSeconds = pollInterval
	}
	if pollTimeout > 0 {
		c.Poll.TimeoutSeconds = pollTimeout
	}
	if bulk {
		c.Bulk = true
	}
}
