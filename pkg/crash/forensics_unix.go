//go:build linux || darwin

package crash

import (
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// EnableCoreForensics makes the runtime's own fatal path as useful as
// possible alongside dump interception: fatal signals print every
// goroutine, the core size limit is raised to its hard maximum, and
// the process is marked dumpable. Call it once, early in main.
func EnableCoreForensics() {
	debug.SetTraceback("crash")

	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CORE, &lim); err == nil && lim.Cur < lim.Max {
		lim.Cur = lim.Max
		_ = unix.Setrlimit(unix.RLIMIT_CORE, &lim)
	}
	markDumpable()
}
