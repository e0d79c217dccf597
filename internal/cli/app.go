// Package cli wires configuration, logging, and theming into the
// context shared by all dumper commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/bnema/dumper/internal/build"
	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/config"
	"github.com/bnema/dumper/internal/logging"
)

// Options carries persistent-flag overrides from the root command.
type Options struct {
	// ConfigFile pins an explicit configuration file. Empty means the
	// XDG search path.
	ConfigFile string
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
	// JSON switches command output and logs to machine-readable JSON.
	JSON bool
}

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	Theme     *styles.Theme
	BuildInfo build.Info
	JSON      bool

	// Manager is non-nil when the configuration was loaded through a
	// manager, which is what live reload in `dumper watch` needs.
	Manager *config.Manager

	// Context with logger
	ctx context.Context
}

// NewApp creates a new CLI application with all dependencies.
func NewApp(opts Options) (*App, error) {
	cfg, mgr, err := loadConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	theme := styles.NewTheme()

	logLevel := cfg.Logging.Level
	if envLevel := os.Getenv("DUMPER_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
	}
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}

	format := cfg.Logging.Format
	if opts.JSON {
		format = "json"
	}

	logger := logging.New(logging.Config{
		Level:      logging.ParseLevel(logLevel),
		Format:     format,
		TimeFormat: "15:04:05",
	})
	ctx := logging.WithContext(context.Background(), logger)

	return &App{
		Config:  cfg,
		Theme:   theme,
		JSON:    opts.JSON,
		Manager: mgr,
		ctx:     ctx,
	}, nil
}

// Close releases all resources.
func (a *App) Close() error {
	return nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// loadConfig loads configuration from standard locations, or from an
// explicit file when one was passed on the command line. Inspection
// commands must stay usable during incident response, so a broken
// default configuration degrades to built-in defaults with a warning
// instead of refusing to start. An explicit file is different: the
// operator named it, so failures are fatal.
func loadConfig(configFile string) (*config.Config, *config.Manager, error) {
	var (
		mgr *config.Manager
		err error
	)
	if configFile != "" {
		mgr, err = config.NewManagerWithConfigFile(configFile)
	} else {
		mgr, err = config.NewManager()
	}
	if err != nil {
		if configFile != "" {
			return nil, nil, fmt.Errorf("load config %s: %w", configFile, err)
		}
		fmt.Fprintf(os.Stderr, "Warning: using default configuration: %v\n", err)
		return config.DefaultConfig(), nil, nil
	}

	if err := mgr.Load(); err != nil {
		if configFile != "" {
			return nil, nil, fmt.Errorf("load config %s: %w", configFile, err)
		}
		fmt.Fprintf(os.Stderr, "Warning: using default configuration: %v\n", err)
		return config.DefaultConfig(), nil, nil
	}

	return mgr.Get(), mgr, nil
}
