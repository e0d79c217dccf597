//go:build linux || darwin

package crash

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bnema/dumper/pkg/minidump"
)

const fatalExitBase = 128

// Dispatcher state, guarded by attachMu. The dispatcher goroutine is
// the trampoline on POSIX platforms: fatal signals reach it through
// sigCh and it never touches anything that needs a lock.
var (
	sigCh chan os.Signal
	quit  chan struct{}
	done  chan struct{}
)

func newPlatformWriter(dir string) (minidump.Writer, error) {
	return minidump.NewSnapshotWriter(dir), nil
}

// installBridge registers h and subscribes the dispatcher to the union
// of all registered interception sets. The first handle starts the
// dispatcher.
func installBridge(h *Handle) error {
	h.sigs = interceptSignals(h.opts)

	attachMu.Lock()
	defer attachMu.Unlock()

	if addHandle(h) {
		sigCh = make(chan os.Signal, 8)
		quit = make(chan struct{})
		done = make(chan struct{})
		go dispatch(sigCh, quit, done)
	}
	renotify(snapshot())
	return nil
}

// removeBridge drops h. The last removal stops the dispatcher and
// restores default signal handling.
func removeBridge(h *Handle) {
	attachMu.Lock()
	defer attachMu.Unlock()

	if sigCh == nil {
		return
	}
	rest := dropHandle(h)
	if rest == nil {
		signal.Stop(sigCh)
		close(quit)
		<-done
		sigCh, quit, done = nil, nil, nil
		crashLatch.Store(false)
		return
	}
	renotify(rest)
}

// renotify replaces the dispatcher's subscription with the union of
// the given handles' interception sets. Caller holds attachMu.
func renotify(hs []*Handle) {
	union := make([]os.Signal, 0, 8)
	seen := make(map[syscall.Signal]bool, 8)
	for _, h := range hs {
		for _, s := range h.sigs {
			if !seen[s] {
				seen[s] = true
				union = append(union, s)
			}
		}
	}
	signal.Stop(sigCh)
	if len(union) > 0 {
		signal.Notify(sigCh, union...)
	}
}

func dispatch(ch <-chan os.Signal, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case sig := <-ch:
			deliver(sig)
		case <-quit:
			return
		}
	}
}

// deliver handles one fatal signal: it walks the handler snapshot
// newest first, lets the first handler that wants the signal dump and
// notify, then hands the fault back to the default disposition so the
// process dies with the correct wait status.
func deliver(sig os.Signal) {
	ssig, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	if !crashLatch.CompareAndSwap(false, true) {
		return
	}
	if hs := snapshot(); hs != nil {
		for _, h := range hs {
			if !h.wants(ssig) {
				continue
			}
			h.fire(&minidump.Context{
				Signal: int(ssig),
				PID:    os.Getpid(),
				Time:   time.Now(),
			})
			break
		}
	}
	signal.Reset(sig)
	_ = unix.Kill(os.Getpid(), ssig)
	// The re-raised signal terminates us; the exit below is a
	// fallback in case it was blocked somewhere unexpected.
	time.Sleep(time.Second)
	os.Exit(fatalExitBase + int(ssig))
}

func (h *Handle) wants(sig syscall.Signal) bool {
	for _, s := range h.sigs {
		if s == sig {
			return true
		}
	}
	return false
}

// fire writes a dump and notifies the handler's event. Everything it
// appends lands in capacity pre-allocated at attach time.
func (h *Handle) fire(ctx *minidump.Context) bool {
	res, err := h.writer.WriteDump(ctx)
	ok := err == nil
	h.pathBuf = appendDumpPath(h.pathBuf[:0], h.dirUnits, res)
	h.event.OnCrash(DumpPath{units: h.pathBuf}, ok)
	return ok
}
