package abi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsValid(t *testing.T) {
	for _, name := range Targets() {
		t.Run(name, func(t *testing.T) {
			tgt, err := Lookup(name)
			require.NoError(t, err)
			assert.NoError(t, tgt.Validate())
			assert.Equal(t, name, tgt.Name)
		})
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	a, err := Lookup(DefaultTarget)
	require.NoError(t, err)
	a.SizeInt = 99
	b, err := Lookup(DefaultTarget)
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.SizeInt)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("pdp11-unix")
	assert.ErrorContains(t, err, "unknown target")
}

func TestParseWithBase(t *testing.T) {
	src := `
base = "x86_64-linux-gnu"
name = "x86_64-custom"
char_signed = false

[bitfields]
straddle = true
`
	tgt, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "x86_64-custom", tgt.Name)
	assert.False(t, tgt.CharSigned)
	assert.True(t, tgt.Bitfields.Straddle)
	assert.Equal(t, int64(8), tgt.SizeLong, "unset keys come from the base profile")
	assert.Equal(t, "amd64", tgt.GoArch)
}

func TestParseRejectsBadAlign(t *testing.T) {
	src := `
base = "x86_64-linux-gnu"
align_int = 3
`
	_, err := Parse([]byte(src))
	assert.ErrorContains(t, err, "power of two")
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "be.toml")
	src := `
base = "aarch64-linux-gnu"
name = "aarch64_be-linux-gnu"
endian = "big"
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	tgt, err := Resolve(path)
	require.NoError(t, err)
	assert.False(t, tgt.LittleEndian())

	tgt, err = Resolve("i686-linux-gnu")
	require.NoError(t, err)
	assert.Equal(t, int64(4), tgt.SizePtr)
}
