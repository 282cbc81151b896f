package xcheck_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/you-not-fish/cmigrate/internal/importer"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
)

// load imports the sum fixture of the importer with every site selected
// and returns the unit with its C source.
func load(t *testing.T) (*ir.Unit, []byte) {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("..", "importer", "testdata", "sum.txtar"))
	require.NoError(t, err)
	var src, ast []byte
	for _, f := range ar.Files {
		switch f.Name {
		case "main.c":
			src = f.Data
		case "main.c.ast.json":
			ast = f.Data
		}
	}
	f, err := syntax.Decode(bytes.NewReader(ast), "main.c")
	require.NoError(t, err)
	u, err := importer.Import(f, &importer.Config{Unit: "main", Sites: xcheck.NewSelection([]string{"all"})})
	require.NoError(t, err)
	return u, src
}

func TestGenerate(t *testing.T) {
	u, src := load(t)
	glue, errs := xcheck.Generate(u, src)
	require.Empty(t, errs)
	assert.Equal(t, 1, glue.Sites)

	id := xcheck.SiteID("main", "main", "sum", 0)
	macro := xcheck.MacroName(id)
	assert.Contains(t, string(glue.Source), fmt.Sprintf("int main(void) { return %s(g, 2); }", macro))
	assert.NotContains(t, string(glue.Source), "return sum(")

	hdr := string(glue.Header)
	assert.Contains(t, hdr, `#include "xcheck_rt.h"`)
	for _, want := range []string{
		fmt.Sprintf("#define %s(a0, a1) ({ \\", macro),
		"\tint *xck_a0 = (a0); \\",
		"\tint xck_a1 = (a1); \\",
		fmt.Sprintf("\tuint64_t xck_seq = xck_enter(0x%08xu, xck_fold(2, xck_ptr(xck_a0 != 0), xck_int((uint64_t)xck_a1, 4))); \\", id),
		"\tint xck_r = sum(xck_a0, xck_a1); \\",
		fmt.Sprintf("\txck_exit(0x%08xu, xck_seq, xck_int((uint64_t)xck_r, 4)); \\", id),
		"\txck_r; \\",
	} {
		assert.Contains(t, hdr, want)
	}
	assert.True(t, strings.HasSuffix(hdr, "#endif\n"))
}

func TestGenerateTokenMismatch(t *testing.T) {
	u, src := load(t)
	// Shift the source so the recorded offset no longer names the callee.
	glue, errs := xcheck.Generate(u, append([]byte(" "), src...))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "callee token not found")
	assert.Zero(t, glue.Sites)
}

func TestRuntimeFiles(t *testing.T) {
	rt := xcheck.Runtime()
	require.Contains(t, rt, "xcheck_rt.h")
	require.Contains(t, rt, "xcheck_rt.c")
	assert.Contains(t, string(rt["xcheck_rt.c"]), `"XCK1\x01"`)
	assert.Equal(t, "xcheck_sites_main.h", xcheck.HeaderName("main"))
}
