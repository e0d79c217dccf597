// Package crash bridges an application-facing attach/detach API to the
// platform's crash interception facility and hands the path of a
// freshly written minidump to a user callback.
//
// A Handle pins one dump directory, one callback, and one dump writer
// together for the lifetime of an attachment. The first attachment
// installs the process-wide interception hook (an unhandled-exception
// filter on Windows, a fatal-signal dispatcher elsewhere); further
// attachments join a registry dispatched newest first; the last detach
// removes the hook and restores what was there before.
//
// The callback contract is strict. OnCrash runs while the process is
// dying: it must not allocate, must not acquire locks, and must not
// perform I/O that can fault. Writing the already-assembled path units
// to a file descriptor opened before the fault is the intended
// pattern. Everything the handler itself needs at crash time is
// pre-resolved at attach time for the same reason.
package crash

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/bnema/dumper/pkg/minidump"
)

// InstallOptions selects which interception facilities a handle
// installs, on platforms that offer more than one. Platforms with a
// single facility accept and record the options without consulting
// them.
type InstallOptions uint32

const (
	// InstallNoHandlers registers the handle without intercepting
	// anything. Simulate still works.
	InstallNoHandlers InstallOptions = 0
	// InstallExceptionHandler intercepts hardware faults.
	InstallExceptionHandler InstallOptions = 1 << 0
	// InstallSignalHandler intercepts software aborts.
	InstallSignalHandler InstallOptions = 1 << 1
	// InstallBothHandlers intercepts both.
	InstallBothHandlers = InstallExceptionHandler | InstallSignalHandler
	// InstallDefault is what callers should pass unless they know
	// better.
	InstallDefault = InstallBothHandlers
)

func (o InstallOptions) String() string {
	switch o & InstallBothHandlers {
	case InstallBothHandlers:
		return "exception|signal"
	case InstallExceptionHandler:
		return "exception"
	case InstallSignalHandler:
		return "signal"
	default:
		return "none"
	}
}

// Event receives crash notifications. Implementations carry whatever
// user context they need in the receiver; the handler never inspects
// it. See the package comment for what OnCrash may and may not do.
type Event interface {
	// OnCrash is invoked at most once per fault with the full path
	// of the dump and whether the dump writer succeeded. A false
	// flag means the path may name a missing or truncated file.
	OnCrash(path DumpPath, succeeded bool)
}

// EventFunc adapts a plain function to the Event interface.
type EventFunc func(path DumpPath, succeeded bool)

func (f EventFunc) OnCrash(path DumpPath, succeeded bool) { f(path, succeeded) }

// Attach and the platform bridges report failures through these
// sentinels; match with errors.Is.
var (
	// ErrPathEncoding reports a dump directory that cannot be
	// represented in the platform's native path code units.
	ErrPathEncoding = errors.New("crash: dump directory not representable in native path encoding")
	// ErrRegistration reports that the OS interception facility or
	// the dump writer could not be bound.
	ErrRegistration = errors.New("crash: registering crash interception failed")
)

// Handle is one live attachment. It is returned by Attach and must be
// released with Detach exactly once.
type Handle struct {
	event    Event
	opts     InstallOptions
	dir      string
	dirUnits []pathChar
	pathBuf  []pathChar
	writer   minidump.Writer
	sigs     []syscall.Signal
}

// Attach validates dir, binds a dump writer to it, pre-resolves every
// buffer the crash path will need, and registers with the platform's
// interception facility. Whether dir exists or is writable is not
// checked here; a missing directory surfaces per crash as a failed
// dump write.
//
// Handles stack: the newest attachment is consulted first when a fault
// arrives, and concurrently attached handles with different
// directories do not interfere.
func Attach(dir string, opts InstallOptions, ev Event) (*Handle, error) {
	if ev == nil {
		return nil, errors.New("crash: attach: nil event")
	}
	units, err := encodePath(dir)
	if err != nil {
		return nil, err
	}
	w, err := newPlatformWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	h := &Handle{
		event:    ev,
		opts:     opts,
		dir:      dir,
		dirUnits: units,
		pathBuf:  make([]pathChar, 0, len(units)+1+minidump.IDLength+len(dumpSuffix)),
		writer:   w,
	}
	if err := installBridge(h); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	return h, nil
}

// Detach unregisters the handle; the last detach removes the OS hook
// and restores the prior interception state. A handle must be detached
// exactly once and not used afterwards; violating that is a
// programming error with undefined behavior, not a reported one.
func (h *Handle) Detach() {
	removeBridge(h)
	_ = h.writer.Close()
}

// Dir returns the dump directory this handle was attached with.
func (h *Handle) Dir() string { return h.dir }

// Simulate drives the dump-and-notify pipeline for this handle as if
// sig had been intercepted, without terminating the process: a dump is
// written, the path assembled, and OnCrash invoked synchronously on
// the calling goroutine. It reports whether the dump writer succeeded.
//
// Simulate exists for self-tests and integration tests. It must not be
// called concurrently with a real fault or another Simulate on the
// same handle.
func (h *Handle) Simulate(sig syscall.Signal) bool {
	return h.fire(&minidump.Context{
		Signal:    int(sig),
		PID:       os.Getpid(),
		Time:      time.Now(),
		Synthetic: true,
	})
}

// CapturePanic writes a dump for an in-flight panic, notifies the
// event, and re-panics with the original value. Defer it near the top
// of main or a goroutine:
//
//	defer h.CapturePanic()
func (h *Handle) CapturePanic() {
	r := recover()
	if r == nil {
		return
	}
	h.fire(&minidump.Context{
		PID:      os.Getpid(),
		Time:     time.Now(),
		PanicMsg: fmt.Sprint(r),
	})
	panic(r)
}
