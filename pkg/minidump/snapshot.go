//go:build linux || darwin

package minidump

import (
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	// stackCap bounds the goroutine dump. Stacks beyond this are
	// truncated by runtime.Stack.
	stackCap = 64 << 10

	// panicCap bounds the rendered panic value in the preamble.
	panicCap = 2 << 10
)

// SnapshotWriter writes process snapshots as .dmp files: a
// key:length:value preamble (pid, signal, time, executable, ...)
// followed by a full goroutine stack dump. All buffers and the next
// target path are resolved ahead of time; WriteDump itself never
// allocates.
type SnapshotWriter struct {
	dir  string
	exe  string
	host string

	nextID   string
	nextPath string

	stackBuf []byte
	record   []byte
	num      []byte
}

// NewSnapshotWriter returns a writer that places dumps in dir. The
// directory is not validated here; a missing or unwritable directory
// surfaces as a write failure at dump time.
func NewSnapshotWriter(dir string) *SnapshotWriter {
	w := &SnapshotWriter{
		dir:      dir,
		stackBuf: make([]byte, stackCap),
		num:      make([]byte, 0, 32),
	}
	w.exe, _ = os.Executable()
	w.host, _ = os.Hostname()
	w.record = make([]byte, 0, stackCap+len(w.exe)+4<<10)
	w.arm()
	return w
}

// Dir returns the directory dumps are written into.
func (w *SnapshotWriter) Dir() string { return w.dir }

// Close releases the writer. The writer holds no OS resources between
// dumps, so this only exists to satisfy Writer.
func (w *SnapshotWriter) Close() error { return nil }

// arm pre-resolves the target of the next dump. Runs in ordinary
// context only: at construction and after each completed write.
func (w *SnapshotWriter) arm() {
	w.nextID = NewID()
	w.nextPath = w.dir + "/" + w.nextID + DumpExt
}

// WriteDump snapshots the process into the pre-resolved target. The
// returned Result names the target even when the write fails. Errors
// are returned unwrapped so the failure path stays allocation free.
func (w *SnapshotWriter) WriteDump(ctx *Context) (Result, error) {
	res := Result{ID: w.nextID, Path: w.nextPath}
	defer w.arm()

	n := runtime.Stack(w.stackBuf, true)

	rec := w.record[:0]
	rec = appendStr(rec, "executable", w.exe)
	rec = w.appendInt(rec, "pid", int64(ctx.PID))
	rec = w.appendInt(rec, "signal", int64(ctx.Signal))
	if ctx.Code != 0 {
		rec = w.appendInt(rec, "code", int64(ctx.Code))
	}
	rec = w.appendInt(rec, "time", ctx.Time.Unix())
	rec = appendStr(rec, "go", runtime.Version())
	rec = appendStr(rec, "host", w.host)
	if ctx.PanicMsg != "" {
		msg := ctx.PanicMsg
		if len(msg) > panicCap {
			msg = msg[:panicCap]
		}
		rec = appendStr(rec, "panic", msg)
	}
	if ctx.Synthetic {
		rec = appendStr(rec, "synthetic", "1")
	}
	rec = append(rec, "stack:"...)
	rec = strconv.AppendInt(rec, int64(n), 10)
	rec = append(rec, ':')
	rec = append(rec, w.stackBuf[:n]...)

	fd, err := unix.Open(w.nextPath, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return res, err
	}
	werr := writeAll(fd, rec)
	if serr := unix.Fsync(fd); werr == nil {
		werr = serr
	}
	if cerr := unix.Close(fd); werr == nil {
		werr = cerr
	}
	return res, werr
}

// appendField appends one key:length:value field. There is no
// delimiter between a value and the next key; the length makes the
// record self-delimiting.
func appendField(dst []byte, key string, val []byte) []byte {
	dst = append(dst, key...)
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, int64(len(val)), 10)
	dst = append(dst, ':')
	return append(dst, val...)
}

func appendStr(dst []byte, key, val string) []byte {
	dst = append(dst, key...)
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, int64(len(val)), 10)
	dst = append(dst, ':')
	return append(dst, val...)
}

func (w *SnapshotWriter) appendInt(dst []byte, key string, v int64) []byte {
	w.num = strconv.AppendInt(w.num[:0], v, 10)
	return appendField(dst, key, w.num)
}

func writeAll(fd int, b []byte) error {
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
