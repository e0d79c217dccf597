package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	// Configure Viper for YAML as default format
	v.SetConfigName("config") // Name without extension
	v.SetConfigType("yaml")

	// Add config paths
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	return newManagerWithViper(v)
}

// NewManagerWithConfigFile creates a manager pinned to an explicit
// configuration file instead of the XDG search path. A missing file is
// an error here; nothing is auto-created.
func NewManagerWithConfigFile(path string) (*Manager, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	return newManagerWithViper(v)
}

func newManagerWithViper(v *viper.Viper) (*Manager, error) {
	// Set up environment variable support
	v.SetEnvPrefix("DUMPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Most settings map automatically via AutomaticEnv() with the DUMPER_
	// prefix (e.g. DUMPER_HANDLER_MAX_DUMPS). The explicit bindings below
	// cover the short names used by the rest of the tooling.
	if err := v.BindEnv("handler.dump_dir", "DUMPER_DUMP_DIR"); err != nil {
		return nil, fmt.Errorf("failed to bind DUMPER_DUMP_DIR: %w", err)
	}
	if err := v.BindEnv("logging.level", "DUMPER_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind DUMPER_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "DUMPER_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind DUMPER_LOG_FORMAT: %w", err)
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}

	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	if err := ensureDumpDir(config); err != nil {
		return err
	}
	normalizeConfig(config)

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	if err := m.viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			if createErr := m.createDefaultConfig(); createErr != nil {
				configDir, _ := GetConfigDir()
				return fmt.Errorf(
					"failed to create default config at %s: %w\nTry creating the directory manually or check permissions",
					configDir,
					createErr,
				)
			}
			if rereadErr := m.viper.ReadInConfig(); rereadErr != nil {
				return fmt.Errorf(
					"failed to read newly created config file: %w\nThe config file was created but couldn't be read. Please check the file format",
					rereadErr,
				)
			}
		} else {
			configFile := m.viper.ConfigFileUsed()
			if configFile == "" {
				configDir, _ := GetConfigDir()
				configFile = filepath.Join(configDir, "config.yaml")
			}
			return fmt.Errorf("failed to read config file at %s: %w\nCheck the file format (must be valid YAML) and permissions", configFile, err)
		}
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		configFile := m.viper.ConfigFileUsed()
		return nil, fmt.Errorf(
			"failed to parse config file at %s: %w\nCheck for syntax errors, invalid values, or type mismatches",
			configFile,
			err,
		)
	}
	return config, nil
}

func ensureDumpDir(config *Config) error {
	if config.Handler.DumpDir != "" {
		return nil
	}
	dumpDir, err := GetDumpDir()
	if err != nil {
		return fmt.Errorf("failed to get dump directory: %w", err)
	}
	config.Handler.DumpDir = dumpDir
	return nil
}

func normalizeConfig(config *Config) {
	config.Handler.DumpDir = strings.TrimSpace(config.Handler.DumpDir)

	options := config.Handler.Options[:0]
	for _, name := range config.Handler.Options {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		options = append(options, name)
	}
	config.Handler.Options = options

	switch strings.ToLower(config.Logging.Format) {
	case "", "console":
		config.Logging.Format = "console"
	case "json":
		config.Logging.Format = "json"
	default:
		config.Logging.Format = "console"
	}
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

// createDefaultConfig creates a default configuration file.
func (m *Manager) createDefaultConfig() error {
	configFile, err := GetConfigFile()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configFile), dirPerm); err != nil {
		return err
	}

	if err := m.viper.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created default configuration file: %s\n", configFile)

	// Ship an editor-friendly schema alongside the first config.
	if err := GenerateSchemaFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to generate config schema: %v\n", err)
	}

	return nil
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.setHandlerDefaults(defaults)
	m.setLoggingDefaults(defaults)
	m.setWatchDefaults(defaults)
}

func (m *Manager) setHandlerDefaults(defaults *Config) {
	m.viper.SetDefault("handler.dump_dir", defaults.Handler.DumpDir)
	m.viper.SetDefault("handler.options", defaults.Handler.Options)
	m.viper.SetDefault("handler.max_dumps", defaults.Handler.MaxDumps)
	m.viper.SetDefault("handler.max_dump_age_days", defaults.Handler.MaxDumpAgeDays)
	m.viper.SetDefault("handler.core_forensics", defaults.Handler.CoreForensics)
}

func (m *Manager) setLoggingDefaults(defaults *Config) {
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.log_dir", defaults.Logging.LogDir)
	m.viper.SetDefault("logging.enable_file_log", defaults.Logging.EnableFileLog)
	m.viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	m.viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	m.viper.SetDefault("logging.max_age_days", defaults.Logging.MaxAgeDays)
	m.viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

func (m *Manager) setWatchDefaults(defaults *Config) {
	m.viper.SetDefault("watch.exec", defaults.Watch.Exec)
	m.viper.SetDefault("watch.sidecar", defaults.Watch.Sidecar)
	m.viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
}
