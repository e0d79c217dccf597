package crash

import (
	"sync"
	"sync/atomic"
)

// The handler registry is copy-on-write: attach and detach build a new
// snapshot under attachMu, while the crash trampoline reads the
// current one with a single atomic load and never locks.
var (
	attachMu sync.Mutex
	attached atomic.Pointer[[]*Handle]

	// crashLatch makes real fault handling one-shot. A second fault
	// racing the first finds the latch closed and falls through to
	// the default disposition.
	crashLatch atomic.Bool
)

// addHandle prepends h to the registry and reports whether it is the
// first registered handle. Caller holds attachMu.
func addHandle(h *Handle) bool {
	old := attached.Load()
	n := 0
	if old != nil {
		n = len(*old)
	}
	next := make([]*Handle, 0, n+1)
	next = append(next, h)
	if old != nil {
		next = append(next, *old...)
	}
	attached.Store(&next)
	return n == 0
}

// dropHandle removes h and returns the remaining handles, nil when the
// registry emptied. Caller holds attachMu.
func dropHandle(h *Handle) []*Handle {
	old := attached.Load()
	if old == nil {
		return nil
	}
	next := make([]*Handle, 0, len(*old))
	for _, cur := range *old {
		if cur != h {
			next = append(next, cur)
		}
	}
	if len(next) == 0 {
		attached.Store(nil)
		return nil
	}
	attached.Store(&next)
	return next
}

// snapshot returns the current handler list, newest first. Safe from
// the trampoline.
func snapshot() []*Handle {
	if hs := attached.Load(); hs != nil {
		return *hs
	}
	return nil
}

// attachedCount reports the number of registered handles.
func attachedCount() int {
	attachMu.Lock()
	defer attachMu.Unlock()
	if hs := attached.Load(); hs != nil {
		return len(*hs)
	}
	return 0
}
