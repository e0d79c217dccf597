//go:build windows

package crash

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// pathChar is one native path code unit: a UTF-16 value on Windows.
type pathChar = uint16

const pathSeparator pathChar = '\\'

var dumpSuffix = []pathChar{'.', 'd', 'm', 'p'}

// encodePath converts a Go string to UTF-16 units, without the
// terminating NUL the syscall helpers append.
func encodePath(s string) ([]pathChar, error) {
	u, err := windows.UTF16FromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathEncoding, err)
	}
	return u[:len(u)-1], nil
}

func decodePath(units []pathChar) string { return windows.UTF16ToString(units) }
