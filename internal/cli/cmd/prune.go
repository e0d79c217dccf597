package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/report"
)

var (
	pruneKeep       int
	pruneMaxAgeDays int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old dumps beyond the retention limits",
	Long: `Remove the oldest dumps (and their sidecars) beyond the retention limits.

Limits come from handler.max_dumps and handler.max_dump_age_days in the
configuration; the flags override them for one run. A limit of 0
disables that check.

Examples:
  dumper prune
  dumper prune --keep 5
  dumper prune --max-age-days 14`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "keep at most this many dumps (overrides config)")
	pruneCmd.Flags().IntVar(&pruneMaxAgeDays, "max-age-days", 0, "remove dumps older than this many days (overrides config)")
}

func runPrune(cmd *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	cfg := app.Config

	keep := cfg.Handler.MaxDumps
	if cmd.Flags().Changed("keep") {
		keep = pruneKeep
	}
	ageDays := cfg.Handler.MaxDumpAgeDays
	if cmd.Flags().Changed("max-age-days") {
		ageDays = pruneMaxAgeDays
	}

	var maxAge time.Duration
	if ageDays > 0 {
		maxAge = time.Duration(ageDays) * 24 * time.Hour
	}

	res, err := report.Prune(cfg.Handler.DumpDir, keep, maxAge)
	if err != nil {
		return err
	}

	if app.JSON {
		return writeJSON(os.Stdout, res)
	}

	renderer := styles.NewDumpsCLIRenderer(app.Theme)
	fmt.Println(renderer.RenderPruneResult(res))
	return nil
}
