package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// apiVersionPattern matches Shopify Admin API versions such as 2023-04.
var apiVersionPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// storePattern matches the subdomain part of {store}.myshopify.com.
var storePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if c.Store == "" {
		errors = append(errors, ValidationError{
			Field:   "store",
			Message: "store is required",
		})
	} else if !storePattern.MatchString(c.Store) {
		errors = append(errors, ValidationError{
			Field:   "store",
			Message: "store must be the shop subdomain (lowercase letters, digits, hyphens)",
		})
	}

	if c.AccessToken == "" {
		errors = append(errors, ValidationError{
			Field:   "access_token",
			Message: "access_token is required",
		})
	}

	if !apiVersionPattern.MatchString(c.APIVersion) {
		errors = append(errors, ValidationError{
			Field:   "api_version",
			Message: "api_version must match YYYY-MM",
		})
	}

	if c.StartDate != "" {
		if _, err := c.StartTime(); err != nil {
			errors = append(errors, ValidationError{
				Field:   "start_date",
				Message: "must be RFC3339 or YYYY-MM-DD",
			})
		}
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "http.timeout_seconds",
			Message: "must be greater than zero",
		})
	}

	if c.Poll.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "poll.interval_seconds",
			Message: "must be greater than zero",
		})
	}

	if c.Poll.TimeoutSeconds < c.Poll.IntervalSeconds {
		errors = append(errors, ValidationError{
			Field:   "poll.timeout_seconds",
			Message: "must be at least poll.interval_seconds",
		})
	}

	if c.State.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "state.path",
			Message: "state path is required",
		})
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "must be one of: json, text",
		})
	}

	return errors
}
