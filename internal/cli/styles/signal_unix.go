//go:build !windows

package styles

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// SignalDisplayName renders a recorded signal number using the local
// platform's signal table. Dumps are normally inspected on the machine
// that produced them, so the local table is the right one.
func SignalDisplayName(signal int) string {
	if signal <= 0 {
		return fmt.Sprintf("signal %d", signal)
	}
	if name := unix.SignalName(syscall.Signal(signal)); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", signal)
}
