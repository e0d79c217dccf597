//go:build !windows

package cmd

import (
	"os"

	"github.com/bnema/dumper/pkg/crash"
)

// stderrCrashEvent reports the daemon's own crash dumps on stderr. The
// callback runs under the crash trampoline's rules, so it sticks to a
// preallocated buffer and a single write.
func stderrCrashEvent() crash.Event {
	buf := make([]byte, 0, 4096)
	return crash.EventFunc(func(p crash.DumpPath, succeeded bool) {
		buf = buf[:0]
		if succeeded {
			buf = append(buf, "crash dump written: "...)
		} else {
			buf = append(buf, "crash dump failed: "...)
		}
		buf = append(buf, p.Native()...)
		buf = append(buf, '\n')
		_, _ = os.Stderr.Write(buf)
	})
}
