package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/you-not-fish/cmigrate/internal/assemble"
	"github.com/you-not-fish/cmigrate/internal/config"
	"github.com/you-not-fish/cmigrate/internal/diag"
)

// astFrontend serves ASTs from memory and fails for unknown files the
// way clang does for a file with syntax errors.
type astFrontend map[string][]byte

func (f astFrontend) Dump(ctx context.Context, cmd *Command) ([]byte, error) {
	if data, ok := f[cmd.File]; ok {
		return data, nil
	}
	return nil, errors.New("clang: exit status 1: " + cmd.File + ":1:1: error: expected identifier")
}

// sumProject unpacks the sum fixture into a directory and returns the
// commands of main.c and of a unit that does not parse.
func sumProject(t *testing.T) (string, []Command, astFrontend) {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("..", "importer", "testdata", "sum.txtar"))
	require.NoError(t, err)
	dir := t.TempDir()
	fe := make(astFrontend)
	for _, f := range ar.Files {
		switch filepath.Ext(f.Name) {
		case ".c":
			require.NoError(t, os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644))
		case ".json":
			fe["main.c"] = f.Data
		}
	}
	cmds := []Command{
		{Directory: dir, File: "main.c", Command: "cc -c main.c"},
		{Directory: dir, File: "broken.c", Command: "cc -c broken.c"},
	}
	return dir, cmds, fe
}

func TestTranslate(t *testing.T) {
	dir, cmds, fe := sumProject(t)
	conf := config.Default()
	conf.Mode = "bin"
	conf.Jobs = 2
	conf.XCheck.Sites = []string{"all"}

	res, err := Translate(context.Background(), cmds, &Options{Config: conf, Frontend: fe})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.Partial())

	counts := res.Diags.Counts("")
	assert.Equal(t, 1, counts[diag.ParseFailure])
	assert.Equal(t, 1, res.Diags.Counts("broken").Total())
	assert.NotZero(t, res.Diags.Counts("main_c").Total(), "the asm statement of bad is reported")

	m := res.Module
	assert.Contains(t, m.Files, "main_c.go")
	assert.NotContains(t, m.Files, "broken.go")
	assert.Contains(t, string(m.Files["main.go"]), "os.Exit(int(c_main()))")
	assert.Contains(t, string(m.Files["main_c.go"]), "xcrt.Enter(")

	require.Len(t, m.Manifest.Units, 2)
	assert.Equal(t, assemble.StatusFailed, m.Manifest.Units[0].Status)
	assert.Equal(t, assemble.StatusPartial, m.Manifest.Units[1].Status)
	assert.True(t, m.Manifest.Units[1].Glue)
	assert.NotEmpty(t, m.Manifest.Units[1].Sites)

	require.Len(t, res.Glue, 1)
	assert.Equal(t, "main_c", res.Glue[0].Unit)

	out := filepath.Join(dir, "out")
	require.NoError(t, Write(out, res))
	for _, name := range []string{
		"main_c.go", "main.go", "types.go", "support.go",
		assemble.ManifestFile, assemble.DiagnosticsFile,
		"xcheck/xcheck_rt.h", "xcheck/xcheck_rt.c",
		"xcheck/xcheck_sites_main_c.h", "xcheck/main_c.xcheck.c",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	data, err := os.ReadFile(filepath.Join(out, assemble.ManifestFile))
	require.NoError(t, err)
	man, err := assemble.ReadManifest(data)
	require.NoError(t, err)
	assert.Equal(t, "c_main", man.Entry)
}

func TestTranslateDeterministic(t *testing.T) {
	_, cmds, fe := sumProject(t)
	var files []map[string][]byte
	for _, jobs := range []int{1, 4} {
		conf := config.Default()
		conf.Jobs = jobs
		conf.Package = "sum"
		res, err := Translate(context.Background(), cmds, &Options{Config: conf, Frontend: fe})
		require.NoError(t, err)
		f, err := res.Files()
		require.NoError(t, err)
		files = append(files, f)
	}
	assert.Equal(t, files[0], files[1])
}

func TestTranslateCancelled(t *testing.T) {
	_, cmds, fe := sumProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Translate(ctx, cmds, &Options{Frontend: fe})
	assert.ErrorIs(t, err, context.Canceled)
}
