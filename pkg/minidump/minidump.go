// Package minidump writes post-mortem snapshots of the current process
// and scans them back. A Writer is bound to a target directory at
// construction and pre-resolves everything the crash-time write will
// need, so writing a dump performs no heap allocation.
package minidump

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// DumpExt is the file extension of every dump this package writes.
const DumpExt = ".dmp"

// IDLength is the length of a dump identifier in characters.
const IDLength = 32

// Context describes the fault a dump is being written for. The zero
// value is a valid "unknown fault" context.
type Context struct {
	// Signal is the POSIX signal number, or 0 when not signal-driven.
	Signal int
	// Code is the Windows exception code, or 0.
	Code uint32
	// Record points at the platform exception record (Windows
	// EXCEPTION_POINTERS), or 0.
	Record uintptr
	// PID is the faulting process id.
	PID int
	// Time is when the fault was observed.
	Time time.Time
	// PanicMsg carries the rendered panic value when the dump is
	// taken from a recovered panic rather than an OS fault.
	PanicMsg string
	// Synthetic marks dumps taken by a simulation or self-test
	// rather than a real fault.
	Synthetic bool
}

// Result reports the target chosen for a dump. It is populated even
// when the write itself failed, so callers can report the path of a
// missing or truncated file.
type Result struct {
	// ID is the generated dump identifier, IDLength lowercase hex
	// characters.
	ID string
	// Path is the full path of the dump file.
	Path string
}

// Writer persists dumps into a fixed directory.
//
// WriteDump may be called from a crash trampoline: implementations
// must not allocate, take locks, or touch any state shared with
// ordinary-context code. The dump target for the NEXT write is
// pre-resolved at construction and re-armed after each write, which is
// the only moment an implementation may allocate.
type Writer interface {
	WriteDump(ctx *Context) (Result, error)
	Dir() string
	Close() error
}

// NewID returns a fresh dump identifier: a random UUID in simple form,
// IDLength lowercase hex characters.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
