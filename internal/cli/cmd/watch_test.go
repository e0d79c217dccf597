package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dumper/internal/config"
	"github.com/bnema/dumper/internal/report"
	"github.com/bnema/dumper/pkg/minidump"
)

func TestWatchSettingsFollowReload(t *testing.T) {
	cfg := &config.Config{}
	cfg.Watch.Exec = "analyze"
	cfg.Watch.Sidecar = true
	cfg.Watch.DebounceMS = 250

	st := newWatchSettings(cfg, "", false, false)
	require.Equal(t, "analyze", st.execCommand())
	require.True(t, st.writeSidecar())
	require.Equal(t, 250*time.Millisecond, st.debounce())

	next := &config.Config{}
	next.Watch.Exec = "other"
	next.Watch.Sidecar = false
	next.Watch.DebounceMS = -5
	st.update(next)
	require.Equal(t, "other", st.execCommand())
	require.False(t, st.writeSidecar())
	require.Equal(t, time.Duration(0), st.debounce())
}

func TestWatchSettingsFlagsPinAcrossReload(t *testing.T) {
	cfg := &config.Config{}
	cfg.Watch.Exec = "analyze"
	cfg.Watch.Sidecar = true

	st := newWatchSettings(cfg, "mine --brief", true, true)
	require.Equal(t, "mine --brief", st.execCommand())
	require.False(t, st.writeSidecar())

	next := &config.Config{}
	next.Watch.Exec = "other"
	next.Watch.Sidecar = true
	st.update(next)
	require.Equal(t, "mine --brief", st.execCommand())
	require.False(t, st.writeSidecar())
}

func TestDumpDebouncerCoalesces(t *testing.T) {
	out := make(chan string, 8)
	deb := newDumpDebouncer(func() time.Duration { return 30 * time.Millisecond }, out)
	defer deb.stop()

	deb.bump("/tmp/a.dmp")
	deb.bump("/tmp/a.dmp")
	deb.bump("/tmp/b.dmp")

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case p := <-out:
			got[p]++
		case <-time.After(2 * time.Second):
			t.Fatal("debouncer never fired")
		}
	}
	require.Equal(t, map[string]int{"/tmp/a.dmp": 1, "/tmp/b.dmp": 1}, got)

	select {
	case p := <-out:
		t.Fatalf("extra arrival %q", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPumpEventsFiltersNonDumps(t *testing.T) {
	watcher := &fsnotify.Watcher{
		Events: make(chan fsnotify.Event, 8),
		Errors: make(chan error, 1),
	}
	out := make(chan string, 8)
	deb := newDumpDebouncer(func() time.Duration { return 0 }, out)
	defer deb.stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pumpEvents(ctx, watcher, deb) }()

	dir := t.TempDir()
	dump := filepath.Join(dir, strings.Repeat("ab", 16)+".dmp")
	watcher.Events <- fsnotify.Event{Name: dump, Op: fsnotify.Create}
	watcher.Events <- fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Create}
	watcher.Events <- fsnotify.Event{Name: dump, Op: fsnotify.Chmod}

	select {
	case got := <-out:
		require.Equal(t, dump, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no arrival for dump create event")
	}
	select {
	case got := <-out:
		t.Fatalf("unexpected arrival %q", got)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWriteArrivalSidecar(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, strings.Repeat("0f", 16)+".dmp")

	info := &minidump.Info{
		Executable: "/bin/demo",
		Hostname:   "testhost",
		PID:        4242,
		Signal:     11,
	}
	require.NoError(t, writeArrivalSidecar(dump, info, "sess-one"))

	sc, err := report.ReadSidecar(dump)
	require.NoError(t, err)
	require.Equal(t, 4242, sc.PID)
	require.Equal(t, 11, sc.Signal)
	require.Equal(t, "/bin/demo", sc.Executable)
	require.Equal(t, "sess-one", sc.SessionID)
	require.True(t, sc.Succeeded)
	require.False(t, sc.Synthetic)

	// An existing sidecar wins over whatever the watcher would note.
	require.NoError(t, writeArrivalSidecar(dump, info, "sess-two"))
	sc, err = report.ReadSidecar(dump)
	require.NoError(t, err)
	require.Equal(t, "sess-one", sc.SessionID)
}
