package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/dumper/internal/cli/styles"
	"github.com/bnema/dumper/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List dumps in the dump directory",
	Long: `List minidumps found in the configured dump directory, newest first.

Examples:
  dumper list
  dumper list --json | jq -r '.[].id'`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	dumpDir := app.Config.Handler.DumpDir
	dumps, err := report.Scan(dumpDir)
	if err != nil {
		return err
	}

	if app.JSON {
		return writeJSON(os.Stdout, dumpsToJSON(dumps))
	}

	renderer := styles.NewDumpsCLIRenderer(app.Theme)
	if len(dumps) == 0 {
		fmt.Println(renderer.RenderEmptyList())
		fmt.Println(app.Theme.Subtle.Render("Dump directory: " + dumpDir))
		return nil
	}
	fmt.Println(renderer.RenderList(dumps))
	return nil
}

// dumpJSON is the machine-readable shape of one dump, shared by the
// list and show commands under --json.
type dumpJSON struct {
	ID         string          `json:"id"`
	Path       string          `json:"path"`
	Size       int64           `json:"size"`
	ModTime    time.Time       `json:"mod_time"`
	Executable string          `json:"executable,omitempty"`
	PID        int             `json:"pid,omitempty"`
	Signal     int             `json:"signal,omitempty"`
	SignalName string          `json:"signal_name,omitempty"`
	Panic      string          `json:"panic,omitempty"`
	Synthetic  bool            `json:"synthetic,omitempty"`
	ParseError string          `json:"parse_error,omitempty"`
	Sidecar    *report.Sidecar `json:"sidecar,omitempty"`
	Stack      string          `json:"stack,omitempty"`
}

func dumpToJSON(p *report.Pending) dumpJSON {
	item := dumpJSON{
		ID:      p.ID,
		Path:    p.Path,
		Size:    p.Size,
		ModTime: p.ModTime,
		Sidecar: p.Sidecar,
	}
	if p.ParseErr != nil {
		item.ParseError = p.ParseErr.Error()
	}
	if info := p.Info; info != nil {
		item.Executable = info.Executable
		item.PID = info.PID
		item.Signal = info.Signal
		if info.Signal != 0 {
			item.SignalName = styles.SignalDisplayName(info.Signal)
		}
		item.Panic = info.PanicMsg
		item.Synthetic = info.Synthetic
	}
	return item
}

func dumpsToJSON(dumps []report.Pending) []dumpJSON {
	items := make([]dumpJSON, 0, len(dumps))
	for i := range dumps {
		items = append(items, dumpToJSON(&dumps[i]))
	}
	return items
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
