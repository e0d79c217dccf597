//go:build linux || darwin

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bnema/dumper/internal/cli"
	"github.com/bnema/dumper/pkg/crash"
	"github.com/bnema/dumper/pkg/minidump"
)

// runCrashSelftest re-runs this binary as a child that kills itself
// with the requested signal, then checks the wait status and the dump
// left behind.
func runCrashSelftest(app *cli.App) error {
	sig := syscall.Signal(selftestSignal)
	if sig == syscall.SIGKILL || sig == syscall.SIGSTOP {
		return fmt.Errorf("signal %d cannot be intercepted", selftestSignal)
	}

	cfg := app.Config
	dumpDir := cfg.Handler.DumpDir
	if err := os.MkdirAll(dumpDir, dumpDirPerm); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own binary: %w", err)
	}

	args := []string{"selftest", "--mode", "crash", "--signal", strconv.Itoa(selftestSignal)}
	if flagConfig != "" {
		args = append(args, "--config", flagConfig)
	}
	child := exec.Command(exe, args...)
	child.Env = append(os.Environ(), selftestChildEnv+"=1")
	child.Stderr = os.Stderr

	runErr := child.Run()
	if runErr == nil {
		return fmt.Errorf("child survived signal %d", selftestSignal)
	}
	var ee *exec.ExitError
	if !errors.As(runErr, &ee) {
		return fmt.Errorf("run child: %w", runErr)
	}
	ws, ok := ee.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() || ws.Signal() != sig {
		return fmt.Errorf("child died unexpectedly: %v", runErr)
	}

	childPID := ee.Pid()
	dumpPath, err := findDumpForPID(dumpDir, childPID)
	if err != nil {
		return err
	}

	return printSelftestResult(app, selftestResult{
		Mode:      "crash",
		Signal:    selftestSignal,
		DumpID:    minidump.IDFromPath(dumpPath),
		Path:      dumpPath,
		Succeeded: true,
		PID:       childPID,
	})
}

func findDumpForPID(dumpDir string, pid int) (string, error) {
	entries, err := os.ReadDir(dumpDir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dumpDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dumpDir, e.Name())
		if minidump.IDFromPath(path) == "" {
			continue
		}
		if ok, err := minidump.IsDumpForPID(path, pid); err == nil && ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("child %d died as expected but left no dump in %s", pid, dumpDir)
}

// runSelftestChild is the child side of --mode crash: attach, then die
// by our own hand so the parent can verify the wait status.
func runSelftestChild() error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	dumpDir := app.Config.Handler.DumpDir
	_, err := crash.Attach(dumpDir, app.Config.Handler.InstallOptions(), stderrCrashEvent())
	if err != nil {
		return fmt.Errorf("attach crash handler: %w", err)
	}

	if err := unix.Kill(os.Getpid(), syscall.Signal(selftestSignal)); err != nil {
		return fmt.Errorf("deliver signal %d: %w", selftestSignal, err)
	}
	// The dispatcher re-raises after dumping; it just needs a moment.
	time.Sleep(5 * time.Second)
	return fmt.Errorf("still alive after signal %d", selftestSignal)
}
