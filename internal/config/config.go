// Package config provides configuration management for dumper with Viper integration.
package config

import (
	"github.com/bnema/dumper/pkg/crash"
)

// File permission constants
const (
	dirPerm  = 0755 // Standard directory permissions (rwxr-xr-x)
	filePerm = 0644 // Standard file permissions (rw-r--r--)
)

// Config represents the complete configuration for dumper.
type Config struct {
	Handler HandlerConfig `mapstructure:"handler" yaml:"handler"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
}

// Handler option names accepted in handler.options.
const (
	OptionException = "exception"
	OptionSignal    = "signal"
	OptionNone      = "none"
)

// HandlerConfig holds crash handler configuration.
type HandlerConfig struct {
	// DumpDir is the directory minidumps are written to. Empty selects the
	// XDG state directory for dumper.
	DumpDir string `mapstructure:"dump_dir" yaml:"dump_dir"`
	// Options selects which platform crash sources get hooked. An empty
	// list selects the platform default set.
	Options        []string `mapstructure:"options" yaml:"options"`
	MaxDumps       int      `mapstructure:"max_dumps" yaml:"max_dumps"`
	MaxDumpAgeDays int      `mapstructure:"max_dump_age_days" yaml:"max_dump_age_days"`
	CoreForensics  bool     `mapstructure:"core_forensics" yaml:"core_forensics"`
}

// InstallOptions maps the configured option names onto the crash package
// bitmask. Validation guarantees the names are known and that "none"
// appears alone.
func (h HandlerConfig) InstallOptions() crash.InstallOptions {
	if len(h.Options) == 0 {
		return crash.InstallDefault
	}
	opts := crash.InstallNoHandlers
	for _, name := range h.Options {
		switch name {
		case OptionException:
			opts |= crash.InstallExceptionHandler
		case OptionSignal:
			opts |= crash.InstallSignalHandler
		}
	}
	return opts
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`
	Format        string `mapstructure:"format" yaml:"format"`
	LogDir        string `mapstructure:"log_dir" yaml:"log_dir"`
	EnableFileLog bool   `mapstructure:"enable_file_log" yaml:"enable_file_log"`
	MaxSizeMB     int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups    int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays    int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress      bool   `mapstructure:"compress" yaml:"compress"`
}

// WatchConfig holds dump directory watcher configuration.
type WatchConfig struct {
	// Exec is a command run for every dump the watcher picks up. The dump
	// path is appended as the final argument.
	Exec string `mapstructure:"exec" yaml:"exec"`
	// Sidecar enables writing a <id>.json metadata file next to each dump.
	Sidecar    bool `mapstructure:"sidecar" yaml:"sidecar"`
	DebounceMS int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}
