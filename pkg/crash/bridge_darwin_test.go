//go:build darwin

package crash

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestInterceptSignalsMapsOptionBits(t *testing.T) {
	exc := interceptSignals(InstallExceptionHandler)
	assert.Contains(t, exc, unix.SIGSEGV)
	assert.Contains(t, exc, unix.SIGBUS)
	assert.NotContains(t, exc, unix.SIGABRT)

	sig := interceptSignals(InstallSignalHandler)
	assert.Equal(t, []syscall.Signal{unix.SIGABRT}, sig)

	both := interceptSignals(InstallBothHandlers)
	assert.Contains(t, both, unix.SIGSEGV)
	assert.Contains(t, both, unix.SIGABRT)

	assert.Empty(t, interceptSignals(InstallNoHandlers))
}

func TestNoHandlersAttachmentStillSimulates(t *testing.T) {
	dir := t.TempDir()
	ev := &recordingEvent{}
	h, err := Attach(dir, InstallNoHandlers, ev)
	require.NoError(t, err)
	defer h.Detach()

	assert.Empty(t, h.sigs)
	require.True(t, h.Simulate(syscall.SIGSEGV))
	assert.Equal(t, 1, ev.calls)
	assert.FileExists(t, ev.path)
}
