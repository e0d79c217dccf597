//go:build !windows

package crash

import (
	"fmt"
	"strings"

	"github.com/bnema/dumper/pkg/minidump"
)

// pathChar is one native path code unit: a byte on POSIX systems.
type pathChar = byte

const pathSeparator pathChar = '/'

var dumpSuffix = []pathChar(minidump.DumpExt)

// encodePath converts a Go string to native path units. POSIX paths
// are the string's bytes as-is; only an embedded NUL is unencodable.
func encodePath(s string) ([]pathChar, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("%w: embedded NUL in %q", ErrPathEncoding, s)
	}
	return []pathChar(s), nil
}

func decodePath(units []pathChar) string { return string(units) }
