package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cc -c main.c", []string{"cc", "-c", "main.c"}},
		{`cc  -DNAME="a b" main.c`, []string{"cc", "-DNAME=a b", "main.c"}},
		{`cc '-DX=\n' main.c`, []string{"cc", `-DX=\n`, "main.c"}},
		{`cc -DQ=\"q\" x.c`, []string{"cc", `-DQ="q"`, "x.c"}},
		{`cc "-I dir/\"inc\""`, []string{"cc", `-I dir/"inc"`}},
		{`cc ""`, []string{"cc", ""}},
	}
	for _, tt := range tests {
		got, err := splitCommand(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := splitCommand(`cc "main.c`)
	assert.Error(t, err)
}

func TestReadCompDB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	db := `[
  {"directory": "/src", "file": "a.c", "command": "cc -c a.c -o a.o"},
  {"directory": "/src", "file": "/src/b.c", "arguments": ["cc", "-c", "b.c"]},
  {"directory": "/src", "file": "a.c", "command": "cc -O2 -c a.c"}
]`
	require.NoError(t, os.WriteFile(path, []byte(db), 0o644))
	cmds, err := ReadCompDB(path)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "/src/a.c", cmds[0].Path())
	assert.Equal(t, "/src/b.c", cmds[1].Path())
	args, err := cmds[0].Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"cc", "-c", "a.c", "-o", "a.o"}, args)

	require.NoError(t, os.WriteFile(path, []byte(`[{"directory": "/src", "file": "a.c"}]`), 0o644))
	_, err = ReadCompDB(path)
	assert.ErrorContains(t, err, "neither command nor arguments")
}

func TestUnitNames(t *testing.T) {
	cmds := []Command{
		{File: "src/main.c"},
		{File: "lib/util.c"},
		{File: "tools/util.c"},
		{File: "io_linux.c"},
		{File: "9lives.c"},
		{File: "types.c"},
		{File: "func.c"},
	}
	assert.Equal(t, []string{"main_c", "util", "util_2", "io_linux_c", "_lives", "types_c", "func"}, unitNames(cmds))
}

func TestDumpArgs(t *testing.T) {
	args := []string{"/usr/bin/cc", "-Iinc", "-DN=1", "-c", "-o", "a.o", "-MD", "-MF", "a.d", "src/a.c"}
	assert.Equal(t,
		[]string{"-Xclang", "-ast-dump=json", "-fsyntax-only", "-Iinc", "-DN=1"},
		dumpArgs(args, "src/a.c"))
}

func TestClangPredumped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.c.ast.json"), []byte(`{"kind":"TranslationUnitDecl"}`), 0o644))
	c := &Clang{Path: filepath.Join(dir, "no-such-clang"), ASTDir: dir}
	data, err := c.Dump(context.Background(), &Command{Directory: "/elsewhere", File: "x.c", Command: "cc -c x.c"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "TranslationUnitDecl")

	_, err = c.Dump(context.Background(), &Command{Directory: dir, File: "y.c", Command: "cc -c y.c"})
	assert.ErrorContains(t, err, "clang")
}
