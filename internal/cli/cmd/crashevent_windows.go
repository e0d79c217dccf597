package cmd

import (
	"os"

	"github.com/bnema/dumper/pkg/crash"
)

// stderrCrashEvent reports the daemon's own crash dumps on stderr. The
// callback runs under the crash trampoline's rules, so it sticks to a
// preallocated buffer and a single write. Native path units are UTF-16
// here; units outside ASCII are folded to '?'.
func stderrCrashEvent() crash.Event {
	buf := make([]byte, 0, 4096)
	return crash.EventFunc(func(p crash.DumpPath, succeeded bool) {
		buf = buf[:0]
		if succeeded {
			buf = append(buf, "crash dump written: "...)
		} else {
			buf = append(buf, "crash dump failed: "...)
		}
		for _, u := range p.Native() {
			if u < 0x80 {
				buf = append(buf, byte(u))
			} else {
				buf = append(buf, '?')
			}
		}
		buf = append(buf, '\r', '\n')
		_, _ = os.Stderr.Write(buf)
	})
}
