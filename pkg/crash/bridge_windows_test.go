//go:build windows

package crash

import (
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dumper/pkg/minidump"
)

type recordingEvent struct {
	mu    sync.Mutex
	calls int
	path  string
	ok    bool
}

func (r *recordingEvent) OnCrash(p DumpPath, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.path = p.String()
	r.ok = ok
}

func TestAttachSimulateDetach(t *testing.T) {
	dir := t.TempDir()
	ev := &recordingEvent{}
	h, err := Attach(dir, InstallDefault, ev)
	require.NoError(t, err)

	require.True(t, h.Simulate(syscall.SIGSEGV))
	assert.Equal(t, 1, ev.calls)
	assert.True(t, ev.ok)
	assert.True(t, strings.HasPrefix(ev.path, dir))
	assert.True(t, strings.HasSuffix(ev.path, minidump.DumpExt))
	assert.FileExists(t, ev.path)

	h.Detach()
	assert.Equal(t, 0, attachedCount())
}

func TestAttachDetachRestoresFilter(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		h, err := Attach(dir, InstallDefault, &recordingEvent{})
		require.NoError(t, err)
		h.Detach()
	}
	assert.Equal(t, 0, attachedCount())

	attachMu.Lock()
	defer attachMu.Unlock()
	assert.Zero(t, prevFilter)
}
