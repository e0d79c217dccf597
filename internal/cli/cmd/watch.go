package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/config"
	"github.com/bnema/dumper/internal/logging"
	"github.com/bnema/dumper/internal/report"
	"github.com/bnema/dumper/pkg/crash"
	"github.com/bnema/dumper/pkg/minidump"
)

const (
	hookTimeout        = 2 * time.Minute
	maxConcurrentHooks = 4
	arrivalsBuffer     = 16
	dumpDirPerm        = 0o755
)

var (
	watchExec      string
	watchNoSidecar bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Attach and watch the dump directory",
	Long: `Run the dump-directory daemon.

The daemon attaches a crash handler for itself, then watches the
configured dump directory: every new minidump is logged, annotated with
a JSON sidecar, and optionally handed to a hook command (the dump path
is appended as the last argument; the command line is split on
whitespace, no shell is involved).

Dumps already present at startup are counted but not reprocessed.
Leftover session markers from earlier runs are swept and reported.
Configuration changes are picked up live; changing handler.dump_dir
requires a restart.

Examples:
  dumper watch
  dumper watch --exec "minidump-stackwalk --brief"
  dumper watch --no-sidecar`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchExec, "exec", "", "command to run for each new dump (dump path appended)")
	watchCmd.Flags().BoolVar(&watchNoSidecar, "no-sidecar", false, "do not write <id>.json metadata next to dumps")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	cfg := app.Config
	dumpDir := cfg.Handler.DumpDir

	baseLog, logCleanup, err := newWatchLogger(cfg)
	if err != nil {
		return err
	}
	defer logCleanup()
	ctx := logging.WithComponent(logging.WithContext(cmd.Context(), baseLog), "watch")
	log := logging.FromContext(ctx)

	if cfg.Handler.CoreForensics {
		crash.EnableCoreForensics()
	}

	if err := os.MkdirAll(dumpDir, dumpDirPerm); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	reportAbruptSessions(log, dumpDir)

	sid := logging.GenerateSessionID()
	session, err := report.BeginSession(dumpDir, sid)
	if err != nil {
		return fmt.Errorf("begin watch session: %w", err)
	}
	defer func() {
		if endErr := session.End(); endErr != nil {
			log.Warn().Err(endErr).Msg("end watch session")
		}
	}()

	handle, err := crash.Attach(dumpDir, cfg.Handler.InstallOptions(), stderrCrashEvent())
	if err != nil {
		return fmt.Errorf("attach crash handler: %w", err)
	}
	defer handle.Detach()

	st := newWatchSettings(cfg, watchExec, cmd.Flags().Changed("exec"), watchNoSidecar)
	if app.Manager != nil {
		app.Manager.OnConfigChange(func(next *config.Config) {
			if next.Handler.DumpDir != dumpDir {
				log.Warn().
					Str("old", dumpDir).
					Str("new", next.Handler.DumpDir).
					Msg("handler.dump_dir changed; restart the daemon to apply")
			}
			st.update(next)
			log.Info().Msg("configuration reloaded")
		})
		if err := app.Manager.Watch(); err != nil {
			log.Warn().Err(err).Msg("config live-reload unavailable")
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dumpDir); err != nil {
		return fmt.Errorf("watch %s: %w", dumpDir, err)
	}

	if pending, scanErr := report.Scan(dumpDir); scanErr == nil && len(pending) > 0 {
		log.Info().Int("count", len(pending)).Msg("dumps already present; only new arrivals are processed")
	}

	log.Info().
		Str("dir", dumpDir).
		Str("session_id", sid).
		Str("options", cfg.Handler.InstallOptions().String()).
		Msg("watching for dumps")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	arrivals := make(chan string, arrivalsBuffer)
	deb := newDumpDebouncer(st.debounce, arrivals)
	defer deb.stop()

	hooks := &errgroup.Group{}
	hooks.SetLimit(maxConcurrentHooks)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pumpEvents(gctx, watcher, deb) })
	g.Go(func() error { return handleArrivals(gctx, arrivals, hooks, st, sid) })

	err = g.Wait()
	_ = hooks.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}

// newWatchLogger builds the daemon logger: console (or raw JSON under
// --json) on stderr, plus a rotated JSON file when file logging is
// enabled.
func newWatchLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}

	var console io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if flagJSON || cfg.Logging.Format == "json" {
		console = os.Stderr
	}

	out := console
	cleanup := func() {}
	if cfg.Logging.EnableFileLog {
		rot, err := logging.NewLogRotator(
			cfg.Logging.LogDir,
			"watch.log",
			cfg.Logging.MaxSizeMB,
			cfg.Logging.MaxBackups,
			cfg.Logging.MaxAgeDays,
			cfg.Logging.Compress,
		)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(console, rot)
		cleanup = func() { _ = rot.Close() }
	}

	logger := zerolog.New(out).
		Level(logging.ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return logger, cleanup, nil
}

// reportAbruptSessions classifies leftover attach markers from earlier
// runs: a dump recorded for the dead pid means the crash pipeline ran;
// no dump means the process was torn down without any handler running
// (SIGKILL, OOM kill, power loss).
func reportAbruptSessions(log *zerolog.Logger, dumpDir string) {
	abrupt, err := report.SweepMarkers(dumpDir)
	if err != nil {
		log.Warn().Err(err).Msg("sweep session markers")
		return
	}
	if len(abrupt) == 0 {
		return
	}

	pending, _ := report.Scan(dumpDir)
	for _, a := range abrupt {
		hasDump := false
		for i := range pending {
			if pending[i].Info != nil && pending[i].Info.PID == a.PID {
				hasDump = true
				break
			}
		}
		log.Warn().
			Str("session_id", a.SessionID).
			Int("pid", a.PID).
			Time("attached_at", a.AttachedAt).
			Bool("dump_found", hasDump).
			Msg("previous session ended abruptly")
	}
}

func pumpEvents(ctx context.Context, watcher *fsnotify.Watcher, deb *dumpDebouncer) error {
	log := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if minidump.IDFromPath(ev.Name) == "" {
				continue
			}
			deb.bump(ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("dump directory watcher error")
		}
	}
}

func handleArrivals(ctx context.Context, arrivals <-chan string, hooks *errgroup.Group, st *watchSettings, sid string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path := <-arrivals:
			hooks.Go(func() error {
				processDump(ctx, path, st, sid)
				return nil
			})
		}
	}
}

func processDump(ctx context.Context, path string, st *watchSettings, sid string) {
	ctx = logging.WithDumpID(ctx, minidump.IDFromPath(path))
	log := logging.FromContext(ctx)

	info, err := minidump.ScanInfo(path)
	if err != nil {
		log.Warn().Err(err).Msg("dump arrived but preamble is unreadable")
		return
	}

	evt := log.Info().Int("pid", info.PID).Bool("synthetic", info.Synthetic)
	if info.PanicMsg != "" {
		evt = evt.Str("panic", info.PanicMsg)
	} else {
		evt = evt.Int("signal", info.Signal).Str("signal_name", styles.SignalDisplayName(info.Signal))
	}
	if info.Executable != "" {
		evt = evt.Str("executable", info.Executable)
	}
	evt.Msg("dump arrived")

	if st.writeSidecar() {
		if err := writeArrivalSidecar(path, &info, sid); err != nil {
			log.Warn().Err(err).Msg("write sidecar")
		}
	}

	if cmdline := st.execCommand(); cmdline != "" {
		runDumpHook(ctx, cmdline, path)
	}
}

// writeArrivalSidecar notes what the watcher knows about a fresh dump
// next to the dump itself. A sidecar that already exists wins; the
// crashed process may know more than we can recover from the preamble.
func writeArrivalSidecar(path string, info *minidump.Info, sid string) error {
	if _, err := os.Stat(report.SidecarPath(path)); err == nil {
		return nil
	}
	_, err := report.WriteSidecar(path, &report.Sidecar{
		WrittenAt:  time.Now().UTC(),
		Hostname:   info.Hostname,
		Executable: info.Executable,
		PID:        info.PID,
		Signal:     info.Signal,
		Synthetic:  info.Synthetic,
		Succeeded:  true,
		SessionID:  sid,
	})
	return err
}

func runDumpHook(ctx context.Context, cmdline, dumpPath string) {
	log := logging.FromContext(ctx)
	args := append(strings.Fields(cmdline), dumpPath)
	hctx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	cmd := exec.CommandContext(hctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Error().
			Err(err).
			Str("hook", args[0]).
			Str("output", strings.TrimSpace(string(out))).
			Msg("dump hook failed")
		return
	}
	log.Debug().Str("hook", args[0]).Msg("dump hook finished")
}

// watchSettings is the slice of configuration the daemon consults per
// dump, swappable on live reload. Values pinned by command-line flags
// survive reloads.
type watchSettings struct {
	mu            sync.RWMutex
	exec          string
	execPinned    bool
	sidecar       bool
	sidecarPinned bool
	debounceMS    int
}

func newWatchSettings(cfg *config.Config, execFlag string, execPinned, noSidecar bool) *watchSettings {
	st := &watchSettings{
		exec:       cfg.Watch.Exec,
		sidecar:    cfg.Watch.Sidecar,
		debounceMS: cfg.Watch.DebounceMS,
	}
	if execPinned {
		st.exec = execFlag
		st.execPinned = true
	}
	if noSidecar {
		st.sidecar = false
		st.sidecarPinned = true
	}
	return st
}

func (s *watchSettings) update(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.execPinned {
		s.exec = cfg.Watch.Exec
	}
	if !s.sidecarPinned {
		s.sidecar = cfg.Watch.Sidecar
	}
	s.debounceMS = cfg.Watch.DebounceMS
}

func (s *watchSettings) execCommand() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exec
}

func (s *watchSettings) writeSidecar() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidecar
}

func (s *watchSettings) debounce() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.debounceMS <= 0 {
		return 0
	}
	return time.Duration(s.debounceMS) * time.Millisecond
}

// dumpDebouncer folds the burst of create/write events for one dump
// file into a single arrival notification.
type dumpDebouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	delay  func() time.Duration
	out    chan<- string
}

func newDumpDebouncer(delay func() time.Duration, out chan<- string) *dumpDebouncer {
	return &dumpDebouncer{
		timers: make(map[string]*time.Timer),
		delay:  delay,
		out:    out,
	}
}

func (d *dumpDebouncer) bump(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay())
		return
	}
	d.timers[path] = time.AfterFunc(d.delay(), func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		d.out <- path
	})
}

func (d *dumpDebouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
}
