package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/report"
	"github.com/bnema/dumper/pkg/minidump"
)

var showStack bool

var showCmd = &cobra.Command{
	Use:   "show <id|latest>",
	Short: "Show one dump in detail",
	Long: `Show the recorded preamble and sidecar metadata of one dump.

The id may be abbreviated to any unique prefix, or be the literal word
"latest" for the newest dump.

Examples:
  dumper show latest
  dumper show 3fa81c
  dumper show latest --stack`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showStack, "stack", false, "print the recorded goroutine stacks")
}

func runShow(_ *cobra.Command, args []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	renderer := styles.NewDumpsCLIRenderer(app.Theme)

	p, err := report.Find(app.Config.Handler.DumpDir, args[0])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s\n%s\n", renderer.RenderError(err), renderer.RenderHint())
		return nil
	}

	if app.JSON {
		item := dumpToJSON(p)
		if showStack {
			if stack, stackErr := minidump.ReadStack(p.Path); stackErr == nil {
				item.Stack = string(stack)
			}
		}
		return writeJSON(os.Stdout, item)
	}

	fmt.Print(renderer.RenderDetail(p))

	if showStack {
		stack, err := minidump.ReadStack(p.Path)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%s\n", renderer.RenderError(fmt.Errorf("read stack: %w", err)))
			return nil
		}
		fmt.Println()
		fmt.Print(renderer.RenderStack(stack))
	}
	return nil
}
