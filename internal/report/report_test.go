package report

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dumper/pkg/minidump"
)

// writeDumpFile fabricates a dump with a valid preamble under dir and
// pins its mod time.
func writeDumpFile(t *testing.T, dir, id string, pid int, modTime time.Time) string {
	t.Helper()

	var b strings.Builder
	field := func(k, v string) {
		fmt.Fprintf(&b, "%s:%d:%s", k, len(v), v)
	}
	field("executable", "/bin/demo")
	field("pid", strconv.Itoa(pid))
	field("signal", "11")
	field("time", strconv.FormatInt(modTime.Unix(), 10))
	field("go", runtime.Version())
	field("host", "testhost")
	field("stack", "goroutine 1 [running]:\nmain.main()\n")

	path := filepath.Join(dir, id+minidump.DumpExt)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestScanOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	oldID := minidump.NewID()
	midID := minidump.NewID()
	newID := minidump.NewID()
	writeDumpFile(t, dir, oldID, 100, base)
	writeDumpFile(t, dir, midID, 200, base.Add(time.Minute))
	writeDumpFile(t, dir, newID, 300, base.Add(2*time.Minute))

	pending, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	assert.Equal(t, newID, pending[0].ID)
	assert.Equal(t, midID, pending[1].ID)
	assert.Equal(t, oldID, pending[2].ID)

	require.NotNil(t, pending[0].Info)
	assert.Equal(t, 300, pending[0].Info.PID)
	assert.Equal(t, 11, pending[0].Info.Signal)
	assert.Greater(t, pending[0].Size, int64(0))
}

func TestScanToleratesForeignAndTruncatedFiles(t *testing.T) {
	dir := t.TempDir()
	goodID := minidump.NewID()
	writeDumpFile(t, dir, goodID, 42, time.Now())

	// Files outside the <id>.dmp convention are not dumps at all.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.dmp"), []byte("hi"), 0o600))

	// Dump-named but garbage inside: listed, with the parse failure kept.
	badID := minidump.NewID()
	require.NoError(t, os.WriteFile(filepath.Join(dir, badID+".dmp"), []byte("not a dump"), 0o600))

	pending, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byID := map[string]Pending{}
	for _, p := range pending {
		byID[p.ID] = p
	}
	require.NotNil(t, byID[goodID].Info)
	assert.Nil(t, byID[badID].Info)
	assert.Error(t, byID[badID].ParseErr)
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	first := strings.Repeat("a", 31) + "1"
	second := strings.Repeat("a", 31) + "2"
	newest := strings.Repeat("b", 32)
	writeDumpFile(t, dir, first, 1, base)
	writeDumpFile(t, dir, second, 2, base.Add(time.Minute))
	writeDumpFile(t, dir, newest, 3, base.Add(2*time.Minute))

	got, err := Find(dir, "latest")
	require.NoError(t, err)
	assert.Equal(t, newest, got.ID)

	got, err = Find(dir, first)
	require.NoError(t, err)
	assert.Equal(t, first, got.ID)

	got, err = Find(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, newest, got.ID)

	_, err = Find(dir, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = Find(dir, "f000")
	require.Error(t, err)
}

func TestFindEmptyDirectory(t *testing.T) {
	_, err := Find(t.TempDir(), "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dumps")
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	id := minidump.NewID()
	dumpPath := writeDumpFile(t, dir, id, 7, time.Now())

	want := &Sidecar{
		WrittenAt:  time.Now().UTC().Truncate(time.Second),
		Hostname:   "vash",
		Executable: "/bin/demo",
		PID:        7,
		Signal:     11,
		Succeeded:  true,
		SessionID:  "20260821_101500_beef",
	}
	scPath, err := WriteSidecar(dumpPath, want)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, id+".json"), scPath)

	got, err := ReadSidecar(dumpPath)
	require.NoError(t, err)
	assert.True(t, want.WrittenAt.Equal(got.WrittenAt))
	got.WrittenAt = want.WrittenAt
	assert.Equal(t, want, got)

	// Scan attaches the sidecar to the matching dump.
	pending, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Sidecar)
	assert.Equal(t, want.SessionID, pending[0].Sidecar.SessionID)
}

func TestReadSidecarMissing(t *testing.T) {
	_, err := ReadSidecar(filepath.Join(t.TempDir(), strings.Repeat("0", 32)+".dmp"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
