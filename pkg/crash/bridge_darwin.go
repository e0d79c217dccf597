//go:build darwin

package crash

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/bnema/dumper/pkg/minidump"
)

// interceptSignals maps the option bits to signal subsets: the
// exception bit selects hardware faults, the signal bit selects
// aborts. With no bits set the handle is registered but intercepts
// nothing.
func interceptSignals(opts InstallOptions) []syscall.Signal {
	var sigs []syscall.Signal
	if opts&InstallExceptionHandler != 0 {
		sigs = append(sigs,
			unix.SIGSEGV,
			unix.SIGFPE,
			unix.SIGILL,
			unix.SIGBUS,
			unix.SIGTRAP,
		)
	}
	if opts&InstallSignalHandler != 0 {
		sigs = append(sigs, unix.SIGABRT)
	}
	return sigs
}

// appendDumpPath assembles directory + separator + id + extension from
// the pieces the writer hands over, which is how paths are delivered
// on this platform.
func appendDumpPath(dst []pathChar, dir []pathChar, res minidump.Result) []pathChar {
	dst = append(dst, dir...)
	dst = append(dst, pathSeparator)
	dst = append(dst, res.ID...)
	return append(dst, dumpSuffix...)
}

func markDumpable() {}
