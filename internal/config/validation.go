// Package config provides validation utilities for configuration values.
package config

import (
	"fmt"
	"strings"
)

// validateConfig performs comprehensive validation of configuration values
func validateConfig(config *Config) error {
	var validationErrors []string

	// Validate handler options
	for _, name := range config.Handler.Options {
		switch name {
		case OptionException, OptionSignal:
			// Valid
		case OptionNone:
			if len(config.Handler.Options) > 1 {
				validationErrors = append(validationErrors, "handler.options 'none' cannot be combined with other options")
			}
		default:
			validationErrors = append(validationErrors, fmt.Sprintf("handler.options must contain only: exception, signal, none (got: %s)", name))
		}
	}

	// Validate numeric ranges
	if config.Handler.MaxDumps < 0 {
		validationErrors = append(validationErrors, "handler.max_dumps must be non-negative")
	}
	if config.Handler.MaxDumpAgeDays < 0 {
		validationErrors = append(validationErrors, "handler.max_dump_age_days must be non-negative")
	}

	// Validate logging values
	if config.Logging.MaxSizeMB < 0 {
		validationErrors = append(validationErrors, "logging.max_size_mb must be non-negative")
	}
	if config.Logging.MaxBackups < 0 {
		validationErrors = append(validationErrors, "logging.max_backups must be non-negative")
	}
	if config.Logging.MaxAgeDays < 0 {
		validationErrors = append(validationErrors, "logging.max_age_days must be non-negative")
	}

	// Validate watcher values
	if config.Watch.DebounceMS < 0 {
		validationErrors = append(validationErrors, "watch.debounce_ms must be non-negative")
	}

	// If there are validation errors, return them
	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}

	return nil
}
