package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	markerDirPerm  = 0o755
	lockFilePerm   = 0o600
	markerFilePerm = 0o644
)

// Session tracks one attached process through marker files in the dump
// directory, so terminations that produced no dump (SIGKILL, OOM kill)
// still leave a trace an operator can find.
type Session struct {
	ID string

	dir  string
	lock *os.File
}

// BeginSession takes the session lock for sid and writes the attach
// marker. The lock stays held until End; a process that dies leaves
// the lock released, which is how SweepMarkers tells "still running"
// apart from "gone without detaching".
func BeginSession(dir, sid string) (*Session, error) {
	if dir == "" || sid == "" {
		return nil, errors.New("session requires dir and sid")
	}
	if err := os.MkdirAll(dir, markerDirPerm); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(sessionLockPath(dir, sid), os.O_CREATE|os.O_RDWR, lockFilePerm)
	if err != nil {
		return nil, err
	}
	locked, err := tryLockExclusiveNonBlocking(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !locked {
		_ = f.Close()
		return nil, fmt.Errorf("session %s lock already held", sid)
	}

	content := fmt.Sprintf(
		"%s\npid=%d\nppid=%d\nexecutable=%s\n",
		time.Now().UTC().Format(time.RFC3339Nano),
		os.Getpid(),
		os.Getppid(),
		executablePath(),
	)
	if err := os.WriteFile(attachMarkerPath(dir, sid), []byte(content), markerFilePerm); err != nil {
		_ = unlockAndClose(f)
		_ = os.Remove(sessionLockPath(dir, sid))
		return nil, err
	}

	return &Session{ID: sid, dir: dir, lock: f}, nil
}

// End records a clean detach: the detach marker is written with the
// attach time embedded, and the session lock is released and removed.
func (s *Session) End() error {
	var attachedAt string
	if raw, err := os.ReadFile(attachMarkerPath(s.dir, s.ID)); err == nil {
		attachedAt = firstNonEmptyLine(raw)
	}

	content := time.Now().UTC().Format(time.RFC3339Nano) + "\n"
	if attachedAt != "" {
		content += "attached_at=" + attachedAt + "\n"
	}
	if err := os.WriteFile(detachMarkerPath(s.dir, s.ID), []byte(content), markerFilePerm); err != nil {
		return err
	}

	if s.lock != nil {
		_ = unlockAndClose(s.lock)
		_ = os.Remove(sessionLockPath(s.dir, s.ID))
		s.lock = nil
	}
	return nil
}

// Abrupt describes a session that attached but never detached and
// whose process no longer holds the lock: it died without the crash
// pipeline writing a dump, or before it could detach.
type Abrupt struct {
	SessionID  string
	PID        int
	Executable string
	AttachedAt time.Time
}

// SweepMarkers reconciles the marker files in dir. Paired attach and
// detach markers are clean sessions and get removed. Attach markers
// with no detach marker and a released lock are classified as abrupt
// terminations, reported, and removed so the next sweep stays quiet.
// Attach markers whose lock is still held belong to live sessions and
// are left alone.
func SweepMarkers(dir string) ([]Abrupt, error) {
	attachMarkers, err := filepath.Glob(filepath.Join(dir, "attach_*.marker"))
	if err != nil {
		return nil, err
	}

	var abrupt []Abrupt
	for _, attachPath := range attachMarkers {
		sid := sessionIDFromMarker(attachPath, "attach_")
		if sid == "" {
			continue
		}

		held, err := sessionLockHeld(dir, sid)
		if err != nil || held {
			continue
		}

		if _, err := os.Stat(detachMarkerPath(dir, sid)); err == nil {
			// Clean pair: attached and detached. Drop the session.
			_ = os.Remove(attachPath)
			_ = os.Remove(detachMarkerPath(dir, sid))
			_ = os.Remove(sessionLockPath(dir, sid))
			continue
		}

		raw, _ := os.ReadFile(attachPath)
		a := Abrupt{SessionID: sid}
		a.PID, _ = strconv.Atoi(markerValue(raw, "pid="))
		a.Executable = markerValue(raw, "executable=")
		if t, parseErr := time.Parse(time.RFC3339Nano, firstNonEmptyLine(raw)); parseErr == nil {
			a.AttachedAt = t
		}
		abrupt = append(abrupt, a)

		_ = os.Remove(attachPath)
		_ = os.Remove(sessionLockPath(dir, sid))
	}

	// Detach markers without a matching attach marker are leftovers of
	// sessions swept or cleaned by hand.
	detachMarkers, err := filepath.Glob(filepath.Join(dir, "detach_*.marker"))
	if err != nil {
		return abrupt, err
	}
	for _, detachPath := range detachMarkers {
		sid := sessionIDFromMarker(detachPath, "detach_")
		if sid == "" {
			continue
		}
		if _, err := os.Stat(attachMarkerPath(dir, sid)); os.IsNotExist(err) {
			_ = os.Remove(detachPath)
		}
	}

	return abrupt, nil
}

// sessionLockHeld probes whether a live process still holds the
// session lock. Taking the lock succeeding means nobody held it.
func sessionLockHeld(dir, sid string) (bool, error) {
	f, err := os.OpenFile(sessionLockPath(dir, sid), os.O_RDWR, lockFilePerm)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	locked, err := tryLockExclusiveNonBlocking(f)
	if err != nil {
		_ = f.Close()
		return false, err
	}
	if !locked {
		_ = f.Close()
		return true, nil
	}
	_ = unlockAndClose(f)
	return false, nil
}

func attachMarkerPath(dir, sid string) string {
	return filepath.Join(dir, "attach_"+sid+".marker")
}

func detachMarkerPath(dir, sid string) string {
	return filepath.Join(dir, "detach_"+sid+".marker")
}

func sessionLockPath(dir, sid string) string {
	return filepath.Join(dir, "session_"+sid+".lock")
}

func sessionIDFromMarker(path, prefix string) string {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ".marker") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".marker")
}

func executablePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return exe
}

func firstNonEmptyLine(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	first, _, _ := strings.Cut(trimmed, "\n")
	return strings.TrimSpace(first)
}

func markerValue(raw []byte, key string) string {
	if key == "" || len(raw) == 0 {
		return ""
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, key) {
			return strings.TrimSpace(strings.TrimPrefix(line, key))
		}
	}
	return ""
}
