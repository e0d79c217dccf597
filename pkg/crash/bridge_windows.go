//go:build windows

package crash

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/bnema/dumper/pkg/minidump"
)

// SetUnhandledExceptionFilter return values.
const (
	exceptionContinueSearch uintptr = 0
	exceptionExecuteHandler uintptr = 1
)

var (
	kernel32                        = windows.NewLazySystemDLL("kernel32.dll")
	procSetUnhandledExceptionFilter = kernel32.NewProc("SetUnhandledExceptionFilter")

	// filterCB is created once per process: NewCallback slots are a
	// finite resource and cannot be released.
	filterCB   uintptr
	prevFilter uintptr
)

// exceptionPointers and exceptionRecord mirror the Win32 structures of
// the same names.
type exceptionPointers struct {
	ExceptionRecord *exceptionRecord
	ContextRecord   uintptr
}

type exceptionRecord struct {
	ExceptionCode        uint32
	ExceptionFlags       uint32
	ExceptionRecord      uintptr
	ExceptionAddress     uintptr
	NumberParameters     uint32
	ExceptionInformation [15]uintptr
}

func newPlatformWriter(dir string) (minidump.Writer, error) {
	w, err := minidump.NewNativeWriter(dir)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// installBridge registers h. The first handle installs the
// unhandled-exception filter and remembers the previous one.
func installBridge(h *Handle) error {
	if err := procSetUnhandledExceptionFilter.Find(); err != nil {
		return err
	}

	attachMu.Lock()
	defer attachMu.Unlock()

	if addHandle(h) {
		if filterCB == 0 {
			filterCB = windows.NewCallback(unhandledFilter)
		}
		prev, _, _ := procSetUnhandledExceptionFilter.Call(filterCB)
		prevFilter = prev
	}
	return nil
}

// removeBridge drops h. The last removal restores the previous
// unhandled-exception filter.
func removeBridge(h *Handle) {
	attachMu.Lock()
	defer attachMu.Unlock()

	if attached.Load() == nil {
		return
	}
	if dropHandle(h) == nil {
		_, _, _ = procSetUnhandledExceptionFilter.Call(prevFilter)
		prevFilter = 0
		crashLatch.Store(false)
	}
}

// unhandledFilter is the trampoline SetUnhandledExceptionFilter runs
// on the faulting thread. It dispatches to the newest handle and tells
// the OS whether the exception was handled.
func unhandledFilter(info uintptr) uintptr {
	if !crashLatch.CompareAndSwap(false, true) {
		return exceptionContinueSearch
	}
	hs := snapshot()
	if len(hs) == 0 {
		return exceptionContinueSearch
	}
	var code uint32
	if info != 0 {
		ep := (*exceptionPointers)(unsafe.Pointer(info))
		if ep.ExceptionRecord != nil {
			code = ep.ExceptionRecord.ExceptionCode
		}
	}
	ok := hs[0].fire(&minidump.Context{
		Code:   code,
		Record: info,
		PID:    os.Getpid(),
		Time:   time.Now(),
	})
	if ok {
		return exceptionExecuteHandler
	}
	return exceptionContinueSearch
}

// fire writes a dump and notifies the handler's event, assembling
// directory + separator + id + extension in UTF-16 inside capacity
// pre-allocated at attach time.
func (h *Handle) fire(ctx *minidump.Context) bool {
	res, err := h.writer.WriteDump(ctx)
	ok := err == nil
	buf := append(h.pathBuf[:0], h.dirUnits...)
	buf = append(buf, pathSeparator)
	for i := 0; i < len(res.ID); i++ {
		buf = append(buf, pathChar(res.ID[i]))
	}
	buf = append(buf, dumpSuffix...)
	h.pathBuf = buf
	h.event.OnCrash(DumpPath{units: buf}, ok)
	return ok
}
