//go:build windows

package crash

import "golang.org/x/sys/windows"

// EnableCoreForensics suppresses the interactive fault dialogs so the
// unhandled-exception filter runs unattended. Call it once, early in
// main.
func EnableCoreForensics() {
	windows.SetErrorMode(windows.SEM_FAILCRITICALERRORS |
		windows.SEM_NOGPFAULTERRORBOX |
		windows.SEM_NOOPENFILEERRORBOX)
}
