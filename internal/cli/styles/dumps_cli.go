package styles

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/dumper/internal/report"
)

const shortDumpIDLen = 12

// DumpsCLIRenderer renders non-interactive CLI output for the dump
// subcommands (`dumper list`, `dumper show`, `dumper prune`).
type DumpsCLIRenderer struct {
	theme *Theme
}

func NewDumpsCLIRenderer(theme *Theme) *DumpsCLIRenderer {
	return &DumpsCLIRenderer{theme: theme}
}

// ShortDumpID truncates a 32-hex dump id for display. `dumper show`
// accepts any unique prefix, so the short form stays usable as input.
func ShortDumpID(id string) string {
	if len(id) > shortDumpIDLen {
		return id[:shortDumpIDLen]
	}
	return id
}

func (r *DumpsCLIRenderer) RenderEmptyList() string {
	return r.theme.Subtle.Render("No dumps found.")
}

func (r *DumpsCLIRenderer) RenderList(items []report.Pending) string {
	if len(items) == 0 {
		return r.RenderEmptyList()
	}

	var b strings.Builder
	title := fmt.Sprintf("%s %s", r.theme.Highlight.Render(IconBolt), r.theme.Title.Render("Dumps (newest first)"))
	b.WriteString(title)
	b.WriteString("\n\n")

	for i := range items {
		b.WriteString(r.renderOne(&items[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(r.theme.Subtle.Render("Use `dumper show <id|latest>` for details."))
	return b.String()
}

func (r *DumpsCLIRenderer) renderOne(p *report.Pending) string {
	id := r.theme.Highlight.Render(ShortDumpID(p.ID))
	when := r.theme.Subtle.Render(p.ModTime.Format("2006-01-02 15:04:05"))
	size := r.theme.Subtle.Render(fmt.Sprintf("(%s)", formatSize(p.Size)))
	return fmt.Sprintf("  %s  %s  %-14s  %s", id, when, r.renderCause(p), size)
}

// renderCause names what killed the process, or flags a dump whose
// preamble could not be parsed.
func (r *DumpsCLIRenderer) renderCause(p *report.Pending) string {
	switch {
	case p.ParseErr != nil:
		return r.theme.WarningStyle.Render("unreadable")
	case p.Info == nil:
		return ""
	case p.Info.PanicMsg != "":
		return r.theme.ErrorStyle.Render("panic")
	case p.Info.Synthetic:
		return r.theme.Subtle.Render("synthetic")
	default:
		return r.theme.ErrorStyle.Render(SignalDisplayName(p.Info.Signal))
	}
}

func (r *DumpsCLIRenderer) RenderDetail(p *report.Pending) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s\n\n",
		r.theme.Highlight.Render(IconBolt),
		r.theme.Title.Render("Dump "+ShortDumpID(p.ID)),
	))

	kv := func(key, val string) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			r.theme.Subtle.Render(fmt.Sprintf("%-11s", key)),
			r.theme.Normal.Render(val),
		))
	}

	kv("Path", p.Path)
	kv("Written", fmt.Sprintf("%s  (%s)", p.ModTime.Format("2006-01-02 15:04:05"), relativeTime(p.ModTime)))
	kv("Size", formatSize(p.Size))

	if p.ParseErr != nil {
		b.WriteString(fmt.Sprintf("  %s %v\n",
			r.theme.WarningStyle.Render(IconWarning+" preamble:"),
			p.ParseErr,
		))
	}

	if info := p.Info; info != nil {
		kv("Cause", r.describeCause(info.Signal, info.Code, info.PanicMsg, info.Synthetic))
		if info.Executable != "" {
			kv("Executable", info.Executable)
		}
		if info.PID != 0 {
			kv("PID", fmt.Sprintf("%d", info.PID))
		}
		if !info.Time.IsZero() {
			kv("Faulted", info.Time.Format("2006-01-02 15:04:05"))
		}
		if info.GoVersion != "" {
			kv("Go", info.GoVersion)
		}
		if info.Hostname != "" {
			kv("Host", info.Hostname)
		}
		if info.StackSize > 0 {
			kv("Stack", formatSize(int64(info.StackSize)))
		}
	}

	if sc := p.Sidecar; sc != nil {
		b.WriteString("\n")
		b.WriteString(r.theme.Subtitle.Render("  Sidecar") + "\n")
		if sc.SessionID != "" {
			kv("Session", sc.SessionID)
		}
		if !sc.WrittenAt.IsZero() {
			kv("Noted", sc.WrittenAt.Local().Format("2006-01-02 15:04:05"))
		}
		status := r.theme.SuccessStyle.Render(IconCheck + " complete")
		if !sc.Succeeded {
			status = r.theme.ErrorStyle.Render(IconX + " incomplete")
		}
		kv("Write", status)
	}

	return b.String()
}

func (r *DumpsCLIRenderer) describeCause(signal int, code uint32, panicMsg string, synthetic bool) string {
	var cause string
	switch {
	case panicMsg != "":
		cause = fmt.Sprintf("panic: %s", panicMsg)
	case signal != 0:
		cause = SignalDisplayName(signal)
		if code != 0 {
			cause += fmt.Sprintf(" (code 0x%x)", code)
		}
	default:
		cause = "unknown"
	}
	if synthetic {
		cause += "  " + r.theme.BadgeMuted.Render("synthetic")
	}
	return cause
}

// RenderStack prints the recorded goroutine stacks verbatim under a
// themed header. The body is untouched so it can be piped or diffed.
func (r *DumpsCLIRenderer) RenderStack(stack []byte) string {
	header := r.theme.Subtitle.Render("  Recorded stacks")
	return header + "\n\n" + strings.TrimRight(string(stack), "\n") + "\n"
}

func (r *DumpsCLIRenderer) RenderPruneResult(res report.PruneResult) string {
	if res.Removed == 0 {
		return r.theme.Subtle.Render(fmt.Sprintf("Nothing to prune (%d dumps kept).", res.Kept))
	}
	return fmt.Sprintf("%s %s",
		r.theme.SuccessStyle.Render(IconTrash),
		r.theme.Normal.Render(fmt.Sprintf("Removed %d dump(s), kept %d.", res.Removed, res.Kept)),
	)
}

func (r *DumpsCLIRenderer) RenderError(err error) string {
	return fmt.Sprintf("%s %v", r.theme.ErrorStyle.Render(IconX), err)
}

func (r *DumpsCLIRenderer) RenderHint() string {
	return r.theme.Subtle.Render(IconInfo + " Hint: run `dumper list` to list available dumps.")
}

// formatSize formats file size in human-readable format.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// relativeTime renders how long ago t was in coarse units.
func relativeTime(t time.Time) string {
	const hoursPerDay = 24
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < hoursPerDay*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/hoursPerDay))
	}
}
