package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bnema/dumper/pkg/minidump"
)

const sidecarExt = ".json"

// Sidecar is the metadata the CLI writes next to each dump it picks
// up. The crash layer never produces these.
type Sidecar struct {
	WrittenAt  time.Time `json:"written_at"`
	Hostname   string    `json:"hostname,omitempty"`
	Executable string    `json:"executable,omitempty"`
	PID        int       `json:"pid,omitempty"`
	Signal     int       `json:"signal,omitempty"`
	Synthetic  bool      `json:"synthetic,omitempty"`
	Succeeded  bool      `json:"succeeded"`
	SessionID  string    `json:"session_id,omitempty"`
}

// SidecarPath returns the sidecar path for a dump path: the same name
// with .json substituted for .dmp.
func SidecarPath(dumpPath string) string {
	return strings.TrimSuffix(dumpPath, minidump.DumpExt) + sidecarExt
}

// WriteSidecar writes sc next to the dump at dumpPath and returns the
// sidecar path.
func WriteSidecar(dumpPath string, sc *Sidecar) (string, error) {
	path := SidecarPath(dumpPath)
	payload, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal sidecar: %w", err)
	}
	payload = append(payload, '\n')
	if err := os.WriteFile(path, payload, markerFilePerm); err != nil {
		return "", fmt.Errorf("failed to write sidecar: %w", err)
	}
	return path, nil
}

// ReadSidecar loads the sidecar for the dump at dumpPath.
func ReadSidecar(dumpPath string) (*Sidecar, error) {
	raw, err := os.ReadFile(SidecarPath(dumpPath))
	if err != nil {
		return nil, err
	}
	sc := &Sidecar{}
	if err := json.Unmarshal(raw, sc); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar: %w", err)
	}
	return sc, nil
}
