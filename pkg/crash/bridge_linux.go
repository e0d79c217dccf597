//go:build linux

package crash

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/bnema/dumper/pkg/minidump"
)

// interceptSignals returns the full fatal-fault set. Linux has a
// single interception facility, so the option bits are recorded but do
// not change what is installed.
func interceptSignals(InstallOptions) []syscall.Signal {
	return []syscall.Signal{
		unix.SIGSEGV,
		unix.SIGABRT,
		unix.SIGFPE,
		unix.SIGILL,
		unix.SIGBUS,
		unix.SIGTRAP,
	}
}

// appendDumpPath copies the writer-reported path unchanged: on Linux
// the writer owns path generation and hands over the complete result.
func appendDumpPath(dst []pathChar, _ []pathChar, res minidump.Result) []pathChar {
	return append(dst, res.Path...)
}

// markDumpable lets the kernel write core files for this process even
// when it would otherwise be excluded (setuid transitions, restrictive
// defaults).
func markDumpable() {
	_ = unix.Prctl(unix.PR_SET_DUMPABLE, 1, 0, 0, 0)
}
