package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/assemble"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
out = "gen"
mode = "bin"
jobs = 2
ldflags = ["-lm"]

[clang]
flags = ["-DNDEBUG"]
ast_dir = "asts"

[xcheck]
sites = ["sum", "printf"]
`), "/src/proj")
	require.NoError(t, err)
	assert.Equal(t, "/src/proj/gen", c.Out)
	assert.Equal(t, "/src/proj/asts", c.Clang.ASTDir)
	assert.Equal(t, "clang", c.Clang.Path, "default kept")
	assert.Equal(t, abi.DefaultTarget, c.Target)
	assert.Equal(t, "main", c.Entry)
	assert.Equal(t, 2, c.Jobs)
	assert.Equal(t, []string{"sum", "printf"}, c.XCheck.Sites)

	ac := c.Assemble()
	assert.Equal(t, assemble.Bin, ac.Mode)
	assert.Equal(t, []string{"-lm"}, ac.LDFlags)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `out = `},
		{"mode", `mode = "shared"`},
		{"jobs", `jobs = -1`},
		{"package", `package = "func"`},
		{"package chars", `package = "my-pkg"`},
		{"runtime", "[xcheck]\nruntime = \"example.com/rt//x\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), ".")
			assert.Error(t, err)
		})
	}
}

func TestLoadTargetFile(t *testing.T) {
	dir := t.TempDir()
	profile := `base = "x86_64-linux-gnu"
name = "x86_64-custom"
size_long_double = 8
align_long_double = 8
long_double_is_double = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.toml"), []byte(profile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`target = "custom.toml"`), 0o644))

	c, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom.toml"), c.Target)
	tgt, err := c.ABI()
	require.NoError(t, err)
	assert.EqualValues(t, 8, tgt.SizeLongDouble)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
