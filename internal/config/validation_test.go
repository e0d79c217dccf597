package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dumper/pkg/crash"
)

func TestValidateConfig_HandlerOptions(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		wantErr bool
	}{
		{name: "empty", options: nil, wantErr: false},
		{name: "exception", options: []string{OptionException}, wantErr: false},
		{name: "signal", options: []string{OptionSignal}, wantErr: false},
		{name: "both", options: []string{OptionException, OptionSignal}, wantErr: false},
		{name: "none alone", options: []string{OptionNone}, wantErr: false},
		{name: "none combined", options: []string{OptionNone, OptionSignal}, wantErr: true},
		{name: "unknown", options: []string{"sigbus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Handler.Options = tt.options

			err := validateConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "handler.options")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateConfig_NumericRanges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "negative max_dumps",
			mutate:  func(c *Config) { c.Handler.MaxDumps = -1 },
			wantMsg: "handler.max_dumps",
		},
		{
			name:    "negative max_dump_age_days",
			mutate:  func(c *Config) { c.Handler.MaxDumpAgeDays = -1 },
			wantMsg: "handler.max_dump_age_days",
		},
		{
			name:    "negative log size",
			mutate:  func(c *Config) { c.Logging.MaxSizeMB = -1 },
			wantMsg: "logging.max_size_mb",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Watch.DebounceMS = -5 },
			wantMsg: "watch.debounce_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateConfig_Defaults(t *testing.T) {
	require.NoError(t, validateConfig(DefaultConfig()))
}

func TestHandlerConfigInstallOptions(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		want    crash.InstallOptions
	}{
		{name: "empty selects default", options: nil, want: crash.InstallDefault},
		{name: "exception only", options: []string{OptionException}, want: crash.InstallExceptionHandler},
		{name: "signal only", options: []string{OptionSignal}, want: crash.InstallSignalHandler},
		{name: "both", options: []string{OptionException, OptionSignal}, want: crash.InstallBothHandlers},
		{name: "none", options: []string{OptionNone}, want: crash.InstallNoHandlers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HandlerConfig{Options: tt.options}
			assert.Equal(t, tt.want, h.InstallOptions())
		})
	}
}

func TestNormalizeConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Handler.Options = []string{" Exception ", "", "SIGNAL"}
	cfg.Handler.DumpDir = "  /var/dumps "
	cfg.Logging.Format = "fancy"

	normalizeConfig(cfg)

	assert.Equal(t, []string{OptionException, OptionSignal}, cfg.Handler.Options)
	assert.Equal(t, "/var/dumps", cfg.Handler.DumpDir)
	assert.Equal(t, "console", cfg.Logging.Format)
}
