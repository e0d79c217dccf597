package styles

import "fmt"

// signalNames carries the conventional POSIX numbers for the faults the
// dump writers record. Windows dumps record the exception code instead,
// but synthetic and foreign dumps still carry a signal number.
var signalNames = map[int]string{
	4:  "SIGILL",
	5:  "SIGTRAP",
	6:  "SIGABRT",
	8:  "SIGFPE",
	11: "SIGSEGV",
}

// SignalDisplayName renders a recorded signal number.
func SignalDisplayName(signal int) string {
	if name, ok := signalNames[signal]; ok {
		return name
	}
	return fmt.Sprintf("signal %d", signal)
}
