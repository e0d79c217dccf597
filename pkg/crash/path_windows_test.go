//go:build windows

package crash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePathProducesWideUnits(t *testing.T) {
	units, err := encodePath(`C:\dumps`)
	require.NoError(t, err)
	require.Len(t, units, len(`C:\dumps`))

	// ASCII input occupies only the low byte of each unit.
	for i, u := range units {
		assert.LessOrEqual(t, u, uint16(0x7f), "unit %d", i)
	}
	assert.Equal(t, `C:\dumps`, decodePath(units))
}

func TestEncodePathRoundTripsNonASCII(t *testing.T) {
	s := `C:\dumps\évènements`
	units, err := encodePath(s)
	require.NoError(t, err)
	assert.Equal(t, s, decodePath(units))
}

func TestEncodePathRejectsNUL(t *testing.T) {
	units, err := encodePath("C:\\dumps\x00evil")
	assert.Nil(t, units)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathEncoding))
}
