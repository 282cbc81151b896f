package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/you-not-fish/cmigrate/internal/config"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/xcrt"
)

// writeSum unpacks the sum fixture into a temporary directory and returns
// the directory.
func writeSum(t *testing.T) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("..", "..", "internal", "importer", "testdata", "sum.txtar"))
	require.NoError(t, err)
	dir := t.TempDir()
	for _, f := range ar.Files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o600))
	}
	return dir
}

func TestRunLayout(t *testing.T) {
	dir := writeSum(t)
	code, out, errOut := captureOutput(t, func() int {
		return runLayout(filepath.Join(dir, "main.c.ast.json"), "")
	})
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "=== Record Layouts (x86_64-linux-gnu) ===")
	assert.Contains(t, out, "struct S {")
	assert.Contains(t, out, "bits: 0+3")
	assert.Contains(t, out, "bits: 3+5")
	assert.Contains(t, out, "offset: 4, size: 4, align: 4")
	assert.Contains(t, out, "// size: 8, align: 4")
}

func TestRunCFG(t *testing.T) {
	dir := writeSum(t)
	ast := filepath.Join(dir, "main.c.ast.json")
	code, out, errOut := captureOutput(t, func() int {
		return runCFG(ast, "sum", true)
	})
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "=== sum ===")
	assert.Contains(t, out, "func sum:")
	assert.Contains(t, out, "regions sum:")
	assert.Contains(t, out, "loop {")
	assert.NotContains(t, out, "=== main ===")

	code, _, errOut = captureOutput(t, func() int {
		return runCFG(ast, "nosuch", false)
	})
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "no function definition named nosuch")
}

func writeStream(t *testing.T, name string, recs ...xcrt.Record) string {
	t.Helper()
	b := xcrt.Header()
	for _, r := range recs {
		b = r.Append(b)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestRunXCheck(t *testing.T) {
	entry := xcrt.Record{Site: 0x2a, Dir: xcrt.DirEntry, Seq: 1, Tag: 5}
	exit := xcrt.Record{Site: 0x2a, Dir: xcrt.DirExit, Seq: 2, EntrySeq: 1, Tag: 7}
	c := writeStream(t, "c.xck", entry, exit)

	code, out, _ := captureOutput(t, func() int { return runDump(c) })
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "#1 entry site=0000002a")
	assert.Contains(t, out, "2 records, 1 calls, 0 pending")

	same := writeStream(t, "same.xck", entry, exit)
	code, out, _ = captureOutput(t, func() int { return runCompare(c, same) })
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "streams agree (2 records)")

	exit.Tag = 8
	other := writeStream(t, "go.xck", entry, exit)
	code, out, _ = captureOutput(t, func() int { return runCompare(c, other) })
	assert.Equal(t, exitError, code)
	assert.Contains(t, out, "record 1: different result")

	pending := writeStream(t, "pending.xck", entry)
	code, out, _ = captureOutput(t, func() int { return runDump(pending) })
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "pending: #1 entry")
}

func TestRunTranslate(t *testing.T) {
	dir := writeSum(t)
	db, err := json.Marshal([]map[string]string{
		{"directory": dir, "file": "main.c", "command": "cc -c main.c -o main.o"},
	})
	require.NoError(t, err)
	compdb := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(compdb, db, 0o600))

	conf := config.Default()
	conf.Out = filepath.Join(dir, "out")
	conf.Mode = "bin"
	rep := diag.NewReporter(diag.LogLevelSilent)

	code, _, errOut := captureOutput(t, func() int { return runTranslate(compdb, conf, rep) })
	assert.Equal(t, exitPartial, code, "bad() is stubbed\n%s", errOut)
	for _, name := range []string{"main_c.go", "main.go", "manifest.toml", "diagnostics.toml"} {
		assert.FileExists(t, filepath.Join(conf.Out, name))
	}

	conf.AllowPartial = true
	code, _, _ = captureOutput(t, func() int { return runTranslate(compdb, conf, rep) })
	assert.Equal(t, exitOK, code)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	compdb := filepath.Join(dir, "compile_commands.json")
	c, err := loadConfig(compdb, "")
	require.NoError(t, err)
	assert.Equal(t, "out", c.Out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(`out = "gen"`), 0o600))
	c, err = loadConfig(compdb, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gen"), c.Out)
}

func TestRunVersion(t *testing.T) {
	code, out, _ := captureOutput(t, func() int { return run([]string{"cmigrate", "version"}) })
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(out, "cmigrate version "+Version))
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan [2][]byte)
	go func() {
		outBytes, _ := io.ReadAll(rOut)
		errBytes, _ := io.ReadAll(rErr)
		done <- [2][]byte{outBytes, errBytes}
	}()

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	b := <-done
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(b[0]), string(b[1])
}
