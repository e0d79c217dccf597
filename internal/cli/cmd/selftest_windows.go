package cmd

import (
	"fmt"

	"github.com/bnema/dumper/internal/cli"
)

// Real-crash verification needs fork/exec plus the signal wait status,
// which Windows does not report. Simulate covers the pipeline here.
func runCrashSelftest(_ *cli.App) error {
	return fmt.Errorf("--mode crash is not available on windows; use --mode simulate")
}

func runSelftestChild() error {
	return fmt.Errorf("selftest child mode is not available on windows")
}
