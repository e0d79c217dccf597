package crash

// DumpPath is the location of a written dump in the platform's native
// path code units: UTF-16 values on Windows, raw filesystem bytes
// elsewhere. The unit count travels with the data; no terminator is
// appended.
type DumpPath struct {
	units []pathChar
}

// Native returns the path's native code units. During an OnCrash call
// the slice aliases handler-owned memory and must not be retained past
// the call without copying.
func (p DumpPath) Native() []pathChar { return p.units }

// Len returns the number of native code units.
func (p DumpPath) Len() int { return len(p.units) }

// String decodes the native units for display.
func (p DumpPath) String() string { return decodePath(p.units) }
