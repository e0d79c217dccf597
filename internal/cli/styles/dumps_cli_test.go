package styles_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/report"
	"github.com/bnema/dumper/pkg/minidump"
)

func TestDumpsCLIRendererErrors(t *testing.T) {
	r := styles.NewDumpsCLIRenderer(styles.NewTheme())

	out := r.RenderError(errors.New("nope"))
	require.Contains(t, out, "nope")

	h := r.RenderHint()
	require.Contains(t, h, "dumper list")
}

func TestRenderList(t *testing.T) {
	r := styles.NewDumpsCLIRenderer(styles.NewTheme())

	require.Contains(t, r.RenderList(nil), "No dumps")

	items := []report.Pending{
		{
			ID:      strings.Repeat("a", 32),
			Path:    "/dumps/" + strings.Repeat("a", 32) + ".dmp",
			Size:    2048,
			ModTime: time.Now(),
			Info:    &minidump.Info{Signal: 11, PID: 42},
		},
		{
			ID:       strings.Repeat("b", 32),
			Path:     "/dumps/" + strings.Repeat("b", 32) + ".dmp",
			Size:     17,
			ModTime:  time.Now().Add(-time.Hour),
			ParseErr: errors.New("truncated"),
		},
	}

	out := r.RenderList(items)
	require.Contains(t, out, strings.Repeat("a", 12))
	require.Contains(t, out, "SIGSEGV")
	require.Contains(t, out, "unreadable")
	require.Contains(t, out, "2.0 KB")
	require.Contains(t, out, "dumper show")
}

func TestRenderDetail(t *testing.T) {
	r := styles.NewDumpsCLIRenderer(styles.NewTheme())

	when := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	p := &report.Pending{
		ID:      strings.Repeat("c", 32),
		Path:    "/dumps/" + strings.Repeat("c", 32) + ".dmp",
		Size:    4096,
		ModTime: when,
		Info: &minidump.Info{
			Executable: "/bin/demo",
			PID:        1234,
			Signal:     11,
			Time:       when,
			GoVersion:  "go1.25.3",
			Hostname:   "vash",
			Synthetic:  true,
			StackSize:  512,
		},
		Sidecar: &report.Sidecar{
			SessionID: "20260820_100000_a7b3",
			WrittenAt: when,
			Succeeded: true,
		},
	}

	out := r.RenderDetail(p)
	require.Contains(t, out, p.Path)
	require.Contains(t, out, "/bin/demo")
	require.Contains(t, out, "1234")
	require.Contains(t, out, "SIGSEGV")
	require.Contains(t, out, "synthetic")
	require.Contains(t, out, "go1.25.3")
	require.Contains(t, out, "20260820_100000_a7b3")
}

func TestRenderDetailPanic(t *testing.T) {
	r := styles.NewDumpsCLIRenderer(styles.NewTheme())

	p := &report.Pending{
		ID:      strings.Repeat("d", 32),
		Path:    "/dumps/x.dmp",
		ModTime: time.Now(),
		Info:    &minidump.Info{PanicMsg: "boom", PID: 7},
	}

	require.Contains(t, r.RenderDetail(p), "panic: boom")
}

func TestRenderPruneResult(t *testing.T) {
	r := styles.NewDumpsCLIRenderer(styles.NewTheme())

	require.Contains(t, r.RenderPruneResult(report.PruneResult{Kept: 5}), "Nothing to prune")
	require.Contains(t, r.RenderPruneResult(report.PruneResult{Removed: 3, Kept: 2}), "Removed 3")
}

func TestShortDumpID(t *testing.T) {
	require.Equal(t, strings.Repeat("e", 12), styles.ShortDumpID(strings.Repeat("e", 32)))
	require.Equal(t, "short", styles.ShortDumpID("short"))
}

func TestSignalDisplayName(t *testing.T) {
	require.Equal(t, "SIGSEGV", styles.SignalDisplayName(11))
	require.Equal(t, "SIGABRT", styles.SignalDisplayName(6))
	require.Equal(t, "signal 0", styles.SignalDisplayName(0))
}
