package assemble

import (
	"bytes"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

func TestManifestRoundTrip(t *testing.T) {
	conf := &Config{Mode: Bin, LDFlags: []string{"-lm"}}
	plan, units := translate(t, program(t), conf)
	m, err := Assemble(plan, units, conf, diag.NewCollector(nil))
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, m.Manifest.Encode(&b))
	got, err := ReadManifest(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "main", got.Package)
	assert.Equal(t, "c_main", got.Entry)
	assert.Equal(t, []string{"-lm"}, got.LDFlags)
	require.Len(t, got.Units, 2)
	assert.Equal(t, "b.c", got.Units[1].File)
	assert.Equal(t, m.Manifest.Externs, got.Externs)
	assert.Equal(t, m.Manifest.Renames, got.Renames)
	assert.Equal(t, 0, got.Diagnostics["LinkConflict"])
}

func TestReadManifestError(t *testing.T) {
	_, err := ReadManifest([]byte("units = 3 = 4"))
	assert.Error(t, err)
}

func TestDiagnostics(t *testing.T) {
	c := diag.NewCollector(nil)
	c.Add(diag.Diagnostic{Unit: "b", Kind: diag.UnsupportedConstruct, Decl: "f", Msg: "computed goto into a loop"})
	c.Add(diag.Diagnostic{Unit: "a", Pos: syntax.NewPos("a.c", 3, 7), Kind: diag.LinkConflict, Msg: "f is defined twice"})

	out, err := Diagnostics(c)
	require.NoError(t, err)
	tree, err := toml.LoadBytes(out)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tree.Get("counts.LinkConflict"))
	assert.Equal(t, int64(0), tree.Get("counts.ParseFailure"))

	entries, ok := tree.Get("diagnostic").([]*toml.Tree)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Get("unit"))
	assert.NotEmpty(t, entries[0].Get("pos"))
	assert.Equal(t, "f", entries[1].Get("decl"))
	assert.Nil(t, entries[1].Get("pos"))
}
