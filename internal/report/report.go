// Package report provides the post-mortem inventory over a dump
// directory: minidump scanning, sidecar metadata, attach session
// markers, and retention pruning.
//
// Nothing in this package runs in crash context. The crash layer
// writes only the dump itself; everything here happens after the fact,
// driven by the CLI.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bnema/dumper/pkg/minidump"
)

// Pending is a dump found on disk, with whatever metadata could be
// recovered around it.
type Pending struct {
	Path    string
	ID      string
	Size    int64
	ModTime time.Time

	// Info is the parsed dump preamble. It is nil for truncated or
	// foreign files, with ParseErr carrying the reason.
	Info     *minidump.Info
	ParseErr error

	// Sidecar is the CLI-written metadata, nil when absent.
	Sidecar *Sidecar
}

// Scan enumerates the dumps in dir, newest first. Files that do not
// follow the <id>.dmp naming are ignored. Dumps whose preamble cannot
// be parsed are still listed so the operator sees them, with ParseErr
// set instead of Info.
func Scan(dir string) ([]Pending, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan dump directory: %w", err)
	}

	pending := make([]Pending, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := minidump.IDFromPath(entry.Name())
		if id == "" {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}

		p := Pending{
			Path:    filepath.Join(dir, entry.Name()),
			ID:      id,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}
		if info, err := minidump.ScanInfo(p.Path); err != nil {
			p.ParseErr = err
		} else {
			p.Info = &info
		}
		if sc, err := ReadSidecar(p.Path); err == nil {
			p.Sidecar = sc
		}
		pending = append(pending, p)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ModTime.After(pending[j].ModTime)
	})
	return pending, nil
}

// Find resolves id to a single pending dump. The special id "latest"
// (or an empty id) selects the newest dump; otherwise any unambiguous
// id prefix is accepted.
func Find(dir, id string) (*Pending, error) {
	pending, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("no dumps in %s", dir)
	}
	if id == "" || id == "latest" {
		return &pending[0], nil
	}

	var match *Pending
	for i := range pending {
		if !strings.HasPrefix(pending[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("dump id %q is ambiguous", id)
		}
		match = &pending[i]
	}
	if match == nil {
		return nil, fmt.Errorf("no dump matching %q in %s", id, dir)
	}
	return match, nil
}
