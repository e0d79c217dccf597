package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCleanLifecycle(t *testing.T) {
	dir := t.TempDir()

	s, err := BeginSession(dir, "20260821_101500_cafe")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "attach_20260821_101500_cafe.marker"))
	assert.FileExists(t, filepath.Join(dir, "session_20260821_101500_cafe.lock"))

	require.NoError(t, s.End())
	assert.FileExists(t, filepath.Join(dir, "detach_20260821_101500_cafe.marker"))
	assert.NoFileExists(t, filepath.Join(dir, "session_20260821_101500_cafe.lock"))

	abrupt, err := SweepMarkers(dir)
	require.NoError(t, err)
	assert.Empty(t, abrupt)

	assert.NoFileExists(t, filepath.Join(dir, "attach_20260821_101500_cafe.marker"))
	assert.NoFileExists(t, filepath.Join(dir, "detach_20260821_101500_cafe.marker"))
}

func TestSweepClassifiesAbruptTermination(t *testing.T) {
	dir := t.TempDir()

	s, err := BeginSession(dir, "20260821_101501_dead")
	require.NoError(t, err)

	// Drop the lock without detaching, the way a killed process would.
	require.NoError(t, unlockAndClose(s.lock))
	s.lock = nil

	abrupt, err := SweepMarkers(dir)
	require.NoError(t, err)
	require.Len(t, abrupt, 1)
	assert.Equal(t, "20260821_101501_dead", abrupt[0].SessionID)
	assert.Equal(t, os.Getpid(), abrupt[0].PID)
	assert.False(t, abrupt[0].AttachedAt.IsZero())

	// Reported once, then gone.
	abrupt, err = SweepMarkers(dir)
	require.NoError(t, err)
	assert.Empty(t, abrupt)
	assert.NoFileExists(t, filepath.Join(dir, "attach_20260821_101501_dead.marker"))
}

func TestSweepSkipsLiveSession(t *testing.T) {
	dir := t.TempDir()

	s, err := BeginSession(dir, "20260821_101502_beef")
	require.NoError(t, err)

	abrupt, err := SweepMarkers(dir)
	require.NoError(t, err)
	assert.Empty(t, abrupt)
	assert.FileExists(t, filepath.Join(dir, "attach_20260821_101502_beef.marker"))

	require.NoError(t, s.End())
}

func TestSweepRemovesOrphanedDetachMarkers(t *testing.T) {
	dir := t.TempDir()
	orphan := filepath.Join(dir, "detach_20260821_101503_f00d.marker")
	require.NoError(t, os.WriteFile(orphan, []byte("2026-08-21T10:15:03Z\n"), 0o644))

	abrupt, err := SweepMarkers(dir)
	require.NoError(t, err)
	assert.Empty(t, abrupt)
	assert.NoFileExists(t, orphan)
}

func TestBeginSessionRefusesHeldLock(t *testing.T) {
	dir := t.TempDir()

	s, err := BeginSession(dir, "dup")
	require.NoError(t, err)
	defer func() { _ = s.End() }()

	_, err = BeginSession(dir, "dup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already held")
}

func TestMarkerValueParsing(t *testing.T) {
	raw := []byte("2026-08-21T10:15:00.123456789Z\npid=4242\nppid=1\nexecutable=/usr/bin/demo\n")

	assert.Equal(t, "2026-08-21T10:15:00.123456789Z", firstNonEmptyLine(raw))
	assert.Equal(t, "4242", markerValue(raw, "pid="))
	assert.Equal(t, "/usr/bin/demo", markerValue(raw, "executable="))
	assert.Equal(t, "", markerValue(raw, "missing="))
}
