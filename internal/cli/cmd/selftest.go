package cmd

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/dumper/internal/cli"
	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/logging"
	"github.com/bnema/dumper/internal/report"
	"github.com/bnema/dumper/pkg/crash"
	"github.com/bnema/dumper/pkg/minidump"
)

const (
	// SIGSEGV everywhere that matters.
	defaultSelftestSignal = 11
	selftestChildEnv      = "DUMPER_SELFTEST_CHILD"
)

var (
	selftestMode   string
	selftestSignal int
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Exercise the crash pipeline end to end",
	Long: `Verify that crash handling works on this machine.

simulate (default) drives the dump-and-notify pipeline in-process
without harming anything: a synthetic dump lands in the configured dump
directory and the result is reported.

crash re-runs this binary as a child, delivers a real fatal signal to
it, and verifies that the child died with that signal and left a dump
behind. Not available on Windows.

Examples:
  dumper selftest
  dumper selftest --signal 6
  dumper selftest --mode crash`,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().StringVar(&selftestMode, "mode", "simulate", "selftest mode: simulate or crash")
	selftestCmd.Flags().IntVar(&selftestSignal, "signal", defaultSelftestSignal, "signal number to deliver")
}

func runSelftest(_ *cobra.Command, _ []string) error {
	if os.Getenv(selftestChildEnv) == "1" {
		return runSelftestChild()
	}
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	switch selftestMode {
	case "simulate":
		return runSimulateSelftest(app)
	case "crash":
		return runCrashSelftest(app)
	default:
		return fmt.Errorf("unknown mode %q (want simulate or crash)", selftestMode)
	}
}

type selftestResult struct {
	Mode      string `json:"mode"`
	Signal    int    `json:"signal"`
	DumpID    string `json:"dump_id"`
	Path      string `json:"path"`
	Succeeded bool   `json:"succeeded"`
	PID       int    `json:"pid"`
}

func runSimulateSelftest(app *cli.App) error {
	cfg := app.Config
	dumpDir := cfg.Handler.DumpDir
	if err := os.MkdirAll(dumpDir, dumpDirPerm); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	var (
		fired   bool
		path    string
		written bool
	)
	h, err := crash.Attach(dumpDir, cfg.Handler.InstallOptions(), crash.EventFunc(func(p crash.DumpPath, succeeded bool) {
		fired = true
		path = p.String()
		written = succeeded
	}))
	if err != nil {
		return fmt.Errorf("attach crash handler: %w", err)
	}
	defer h.Detach()

	h.Simulate(syscall.Signal(selftestSignal))
	if !fired {
		return fmt.Errorf("crash event did not fire")
	}
	if !written {
		return fmt.Errorf("dump writer failed for %s", path)
	}

	sc := &report.Sidecar{
		WrittenAt: time.Now().UTC(),
		PID:       os.Getpid(),
		Signal:    selftestSignal,
		Synthetic: true,
		Succeeded: true,
		SessionID: logging.GenerateSessionID(),
	}
	if host, hostErr := os.Hostname(); hostErr == nil {
		sc.Hostname = host
	}
	if exe, exeErr := os.Executable(); exeErr == nil {
		sc.Executable = exe
	}
	if _, scErr := report.WriteSidecar(path, sc); scErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: sidecar not written: %v\n", scErr)
	}

	return printSelftestResult(app, selftestResult{
		Mode:      "simulate",
		Signal:    selftestSignal,
		DumpID:    minidump.IDFromPath(path),
		Path:      path,
		Succeeded: true,
		PID:       os.Getpid(),
	})
}

func printSelftestResult(app *cli.App, res selftestResult) error {
	if app.JSON {
		return writeJSON(os.Stdout, res)
	}
	theme := app.Theme
	kv := func(key, value string) {
		fmt.Printf("  %s  %s\n", theme.Subtle.Render(fmt.Sprintf("%-8s", key)), value)
	}
	fmt.Println()
	fmt.Println(theme.SuccessStyle.Render(styles.IconCheck + " Crash pipeline OK"))
	kv("mode:", res.Mode)
	kv("signal:", styles.SignalDisplayName(res.Signal))
	kv("dump:", theme.Highlight.Render(styles.ShortDumpID(res.DumpID)))
	kv("path:", res.Path)
	fmt.Println()
	fmt.Println(theme.Subtle.Render("Use 'dumper show latest' for details."))
	return nil
}
