package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"fatal":    zerolog.FatalLevel,
		"DEBUG":    zerolog.DebugLevel,
		" info ":   zerolog.InfoLevel,
		"nonsense": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Level = zerolog.DebugLevel

	logger := NewWithOutput(cfg, &buf)
	logger.Info().Str("dump_id", "abc").Msg("dump arrived")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["dump_id"])
	assert.Equal(t, "dump arrived", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewWithOutputLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Level = zerolog.WarnLevel

	logger := NewWithOutput(cfg, &buf)
	logger.Debug().Msg("dropped")
	logger.Warn().Msg("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("DUMPER_LOG_LEVEL", "error")
	t.Setenv("DUMPER_LOG_FORMAT", "json")

	logger := NewFromEnv()
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())
}

func TestLogRotatorRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	r, err := NewLogRotator(dir, "dumper.log", 1, 3, 0, false)
	require.NoError(t, err)
	defer r.Close()

	line := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		_, err := r.Write([]byte(line))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var backups int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "dumper.log.") {
			backups++
		}
	}
	assert.Greater(t, backups, 0, "size overflow must produce a backup")
	assert.LessOrEqual(t, backups, 3, "cleanup must respect maxBackups")
	assert.FileExists(t, filepath.Join(dir, "dumper.log"))
}

func TestLogRotatorCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	r, err := NewLogRotator(dir, "dumper.log", 10, 2, 7, false)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dumper.log"))
}
