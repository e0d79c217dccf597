package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetXDGDirs(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))

	dirs, err := GetXDGDirs()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "config", "dumper"), dirs.ConfigHome)
	assert.Equal(t, filepath.Join(base, "data", "dumper"), dirs.DataHome)
	assert.Equal(t, filepath.Join(base, "state", "dumper"), dirs.StateHome)
}

func TestGetXDGDirsFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")

	dirs, err := GetXDGDirs()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "dumper"), dirs.ConfigHome)
	assert.Equal(t, filepath.Join(home, ".local", "share", "dumper"), dirs.DataHome)
	assert.Equal(t, filepath.Join(home, ".local", "state", "dumper"), dirs.StateHome)
}

func TestGetXDGDirsDevMode(t *testing.T) {
	t.Setenv("ENV", "dev")

	dirs, err := GetXDGDirs()
	require.NoError(t, err)

	assert.Contains(t, dirs.ConfigHome, filepath.Join(".dev", "dumper"))
	assert.Equal(t, dirs.ConfigHome, dirs.DataHome)
	assert.Equal(t, dirs.ConfigHome, dirs.StateHome)
}

func TestGetDumpDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))

	dumpDir, err := GetDumpDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "state", "dumper", "dumps"), dumpDir)
}

func TestGetConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))

	configFile, err := GetConfigFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "config", "dumper", "config.yaml"), configFile)
}
