//go:build windows

package minidump

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Minidump type flags accepted by MiniDumpWriteDump.
const (
	MiniDumpNormal         = 0x00000000
	MiniDumpWithDataSegs   = 0x00000001
	MiniDumpWithFullMemory = 0x00000002
)

var (
	modDbghelp            = windows.NewLazySystemDLL("dbghelp.dll")
	procMiniDumpWriteDump = modDbghelp.NewProc("MiniDumpWriteDump")
)

// exceptionInformation mirrors MINIDUMP_EXCEPTION_INFORMATION.
type exceptionInformation struct {
	ThreadID          uint32
	ExceptionPointers uintptr
	ClientPointers    int32
}

// NativeWriter produces minidumps through dbghelp MiniDumpWriteDump.
// The next target path is pre-resolved in UTF-16 at arm time so the
// crash-time call performs no conversions or allocations.
type NativeWriter struct {
	dir       string
	typ       uint32
	nextID    string
	nextPath  string
	nextPathW []uint16
	ei        exceptionInformation
}

// NewNativeWriter binds a dbghelp-backed writer to dir. It fails when
// MiniDumpWriteDump cannot be resolved, so a broken debug-help
// installation surfaces at attach time instead of during a crash.
func NewNativeWriter(dir string) (*NativeWriter, error) {
	if err := procMiniDumpWriteDump.Find(); err != nil {
		return nil, err
	}
	w := &NativeWriter{dir: dir, typ: MiniDumpNormal}
	w.arm()
	return w, nil
}

// Dir returns the directory dumps are written into.
func (w *NativeWriter) Dir() string { return w.dir }

// Close releases the writer.
func (w *NativeWriter) Close() error { return nil }

// arm pre-resolves the target of the next dump. Runs in ordinary
// context only: at construction and after each completed write.
func (w *NativeWriter) arm() {
	w.nextID = NewID()
	w.nextPath = w.dir + `\` + w.nextID + DumpExt
	w.nextPathW, _ = windows.UTF16FromString(w.nextPath)
}

// WriteDump writes a minidump of the current process into the
// pre-resolved target. The returned Result names the target even when
// the write fails.
func (w *NativeWriter) WriteDump(ctx *Context) (Result, error) {
	res := Result{ID: w.nextID, Path: w.nextPath}
	defer w.arm()

	if len(w.nextPathW) == 0 {
		return res, windows.ERROR_INVALID_NAME
	}
	f, err := windows.CreateFile(&w.nextPathW[0], windows.GENERIC_WRITE, 0, nil,
		windows.CREATE_ALWAYS, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return res, err
	}

	var exc uintptr
	if ctx.Record != 0 {
		w.ei = exceptionInformation{
			ThreadID:          windows.GetCurrentThreadId(),
			ExceptionPointers: ctx.Record,
		}
		exc = uintptr(unsafe.Pointer(&w.ei))
	}
	r1, _, callErr := procMiniDumpWriteDump.Call(
		uintptr(windows.CurrentProcess()),
		uintptr(windows.GetCurrentProcessId()),
		uintptr(f),
		uintptr(w.typ),
		exc, 0, 0)

	var werr error
	if r1 == 0 {
		werr = callErr
	}
	if cerr := windows.CloseHandle(f); werr == nil && cerr != nil {
		werr = cerr
	}
	return res, werr
}
