//go:build linux

package crash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestInterceptSignalsIgnoresOptions(t *testing.T) {
	full := interceptSignals(InstallBothHandlers)
	assert.ElementsMatch(t, full, interceptSignals(InstallNoHandlers))
	assert.ElementsMatch(t, full, interceptSignals(InstallExceptionHandler))
	assert.ElementsMatch(t, full, interceptSignals(InstallOptions(0xffff)))

	assert.Contains(t, full, unix.SIGSEGV)
	assert.Contains(t, full, unix.SIGABRT)
	assert.Contains(t, full, unix.SIGFPE)
	assert.Contains(t, full, unix.SIGILL)
	assert.Contains(t, full, unix.SIGBUS)
	assert.Contains(t, full, unix.SIGTRAP)
}
