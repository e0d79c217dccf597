package minidump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// maxKeyLen rejects files that are clearly not dumps before any
	// value is loaded.
	maxKeyLen = 64

	// maxValueLen bounds how much of a single preamble value is
	// loaded into memory.
	maxValueLen = 1 << 20
)

// Info is the recorded preamble of a dump file: everything the writer
// noted about the fault, without the stack body.
type Info struct {
	Executable string
	PID        int
	Signal     int
	Code       uint32
	Time       time.Time
	GoVersion  string
	Hostname   string
	PanicMsg   string
	Synthetic  bool
	StackSize  int
}

// ScanInfo parses the key:length:value preamble of the dump at path.
// The stack body itself is not loaded; only its recorded size is
// reported. Files that do not follow the dump framing produce an
// error rather than partial data.
func ScanInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	var info Info
	r := bufio.NewReader(io.LimitReader(f, maxValueLen*2))
	for {
		key, length, err := readFieldHeader(r)
		if err == io.EOF {
			return info, nil
		}
		if err != nil {
			return info, fmt.Errorf("%s: %w", path, err)
		}
		if key == "stack" {
			// The stack is always the last field.
			info.StackSize = length
			return info, nil
		}
		if length > maxValueLen {
			return info, fmt.Errorf("%s: implausible %d byte value for %q", path, length, key)
		}
		val := make([]byte, length)
		if _, err := io.ReadFull(r, val); err != nil {
			return info, fmt.Errorf("%s: reading value of %q: %w", path, key, err)
		}
		if err := info.set(key, string(val)); err != nil {
			return info, fmt.Errorf("%s: %w", path, err)
		}
	}
}

// ReadStack returns the stack body recorded in the dump at path. A
// body cut short by the dying process is returned as far as it goes;
// a dump with no stack field at all is an error.
func ReadStack(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(io.LimitReader(f, maxValueLen*2))
	for {
		key, length, err := readFieldHeader(r)
		if err == io.EOF {
			return nil, fmt.Errorf("%s: no stack recorded", path)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if length > maxValueLen {
			return nil, fmt.Errorf("%s: implausible %d byte value for %q", path, length, key)
		}
		buf := make([]byte, length)
		n, err := io.ReadFull(r, buf)
		if key == "stack" {
			if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
				return nil, fmt.Errorf("%s: reading stack: %w", path, err)
			}
			return buf[:n], nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading value of %q: %w", path, key, err)
		}
	}
}

// IsDumpForPID reports whether the dump at path was written for the
// given process id.
func IsDumpForPID(path string, pid int) (bool, error) {
	info, err := ScanInfo(path)
	if err != nil {
		return false, err
	}
	return info.PID == pid, nil
}

// IDFromPath extracts the dump id from a dump file name, or returns ""
// when the name does not follow the <id>.dmp convention.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	id, ok := strings.CutSuffix(base, DumpExt)
	if !ok || len(id) != IDLength {
		return ""
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ""
		}
	}
	return id
}

// readFieldHeader consumes the next "key:length:" pair. There is no
// delimiter between a value and the following key, so the caller must
// consume exactly length bytes before reading the next header.
func readFieldHeader(r *bufio.Reader) (string, int, error) {
	key, err := r.ReadString(':')
	if err == io.EOF && len(key) == 0 {
		return "", 0, io.EOF
	}
	if err != nil {
		return "", 0, fmt.Errorf("reading field key: %w", err)
	}
	key = strings.TrimSuffix(key, ":")
	if len(key) > maxKeyLen {
		return "", 0, fmt.Errorf("field key exceeds %d bytes", maxKeyLen)
	}
	lengthStr, err := r.ReadString(':')
	if err != nil {
		return "", 0, fmt.Errorf("reading length of %q: %w", key, err)
	}
	length, err := strconv.Atoi(strings.TrimSuffix(lengthStr, ":"))
	if err != nil || length < 0 {
		return "", 0, fmt.Errorf("bad length %q for field %q", strings.TrimSuffix(lengthStr, ":"), key)
	}
	return key, length, nil
}

func (info *Info) set(key, val string) error {
	var err error
	switch key {
	case "executable":
		info.Executable = val
	case "pid":
		info.PID, err = strconv.Atoi(val)
	case "signal":
		info.Signal, err = strconv.Atoi(val)
	case "code":
		var code int64
		code, err = strconv.ParseInt(val, 10, 64)
		info.Code = uint32(code)
	case "time":
		var sec int64
		sec, err = strconv.ParseInt(val, 10, 64)
		info.Time = time.Unix(sec, 0)
	case "go":
		info.GoVersion = val
	case "host":
		info.Hostname = val
	case "panic":
		info.PanicMsg = val
	case "synthetic":
		info.Synthetic = val == "1"
	default:
		// Unknown fields are carried by newer writers; skip them.
	}
	if err != nil {
		return fmt.Errorf("bad %q value %q: %w", key, val, err)
	}
	return nil
}
