// Package config provides default configuration values for dumper.
package config

// Default configuration constants
const (
	// Handler defaults
	defaultMaxDumps       = 20 // retained minidumps
	defaultMaxDumpAgeDays = 30 // days

	// Logging defaults
	defaultMaxLogSizeMB  = 100 // MB
	defaultMaxBackups    = 3   // backup files
	defaultMaxLogAgeDays = 7   // days

	// Watch defaults
	defaultDebounceMS = 250 // milliseconds
)

// getDefaultDumpDir returns the default dump directory, falls back to empty string on error
func getDefaultDumpDir() string {
	dumpDir, err := GetDumpDir()
	if err != nil {
		return ""
	}
	return dumpDir
}

// getDefaultLogDir returns the default log directory, falls back to empty string on error
func getDefaultLogDir() string {
	logDir, err := GetLogDir()
	if err != nil {
		return ""
	}
	return logDir
}

// DefaultConfig returns the default configuration values for dumper.
func DefaultConfig() *Config {
	return &Config{
		Handler: HandlerConfig{
			DumpDir:        getDefaultDumpDir(),
			Options:        []string{OptionException, OptionSignal},
			MaxDumps:       defaultMaxDumps,
			MaxDumpAgeDays: defaultMaxDumpAgeDays,
			CoreForensics:  false,
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "console", // console or json
			LogDir:        getDefaultLogDir(),
			EnableFileLog: false,
			MaxSizeMB:     defaultMaxLogSizeMB,
			MaxBackups:    defaultMaxBackups,
			MaxAgeDays:    defaultMaxLogAgeDays,
			Compress:      true,
		},
		Watch: WatchConfig{
			Exec:       "", // no hook command by default
			Sidecar:    true,
			DebounceMS: defaultDebounceMS,
		},
	}
}
