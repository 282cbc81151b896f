package syntax

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A trimmed dump of:
//
//	#include "sq.h"          // int sq(int);
//	#define ONE 1
//	int main(void) { return sq(ONE); }
const mainJSON = `{
  "id": "0x1", "kind": "TranslationUnitDecl", "loc": {}, "range": {"begin": {}, "end": {}},
  "inner": [
    {"id": "0x10", "kind": "FunctionDecl",
     "loc": {"offset": 4, "file": "sq.h", "line": 1, "col": 5, "tokLen": 2, "includedFrom": {"file": "main.c"}},
     "range": {"begin": {"offset": 0, "col": 1, "tokLen": 3}, "end": {"offset": 11, "col": 12, "tokLen": 1}},
     "name": "sq", "type": {"qualType": "int (int)"},
     "inner": [{"id": "0x11", "kind": "ParmVarDecl", "loc": {"offset": 10, "col": 11, "tokLen": 3},
                "range": {"begin": {"offset": 7, "col": 8, "tokLen": 3}, "end": {"offset": 7, "col": 8, "tokLen": 3}},
                "type": {"qualType": "int"}}]},
    {"id": "0x20", "kind": "FunctionDecl",
     "loc": {"offset": 47, "file": "main.c", "line": 3, "col": 5, "tokLen": 4},
     "range": {"begin": {"offset": 43, "col": 1, "tokLen": 3}, "end": {"offset": 76, "col": 34, "tokLen": 1}},
     "name": "main", "type": {"qualType": "int (void)"},
     "inner": [
       {"id": "0x21", "kind": "CompoundStmt",
        "range": {"begin": {"offset": 58, "col": 16, "tokLen": 1}, "end": {"offset": 76, "col": 34, "tokLen": 1}},
        "inner": [
          {"id": "0x22", "kind": "ReturnStmt",
           "range": {"begin": {"offset": 60, "col": 18, "tokLen": 6}, "end": {"offset": 73, "col": 31, "tokLen": 1}},
           "inner": [
             {"id": "0x23", "kind": "CallExpr",
              "range": {"begin": {"offset": 67, "col": 25, "tokLen": 2}, "end": {"offset": 73, "col": 31, "tokLen": 1}},
              "type": {"qualType": "int"}, "valueCategory": "prvalue",
              "inner": [
                {"id": "0x24", "kind": "ImplicitCastExpr", "castKind": "FunctionToPointerDecay",
                 "range": {"begin": {"offset": 67, "col": 25, "tokLen": 2}, "end": {"offset": 67, "col": 25, "tokLen": 2}},
                 "type": {"qualType": "int (*)(int)"}, "inner": [
                   {"id": "0x25", "kind": "DeclRefExpr",
                    "range": {"begin": {"offset": 67, "col": 25, "tokLen": 2}, "end": {"offset": 67, "col": 25, "tokLen": 2}},
                    "type": {"qualType": "int (int)"},
                    "referencedDecl": {"id": "0x10", "kind": "FunctionDecl", "name": "sq", "type": {"qualType": "int (int)"}}}]},
                {"id": "0x26", "kind": "IntegerLiteral",
                 "range": {"begin": {"spellingLoc": {"offset": 22, "line": 2, "col": 13, "tokLen": 1},
                                     "expansionLoc": {"offset": 70, "line": 3, "col": 28, "tokLen": 3}},
                           "end": {"spellingLoc": {"offset": 22, "line": 2, "col": 13, "tokLen": 1},
                                   "expansionLoc": {"offset": 70, "line": 3, "col": 28, "tokLen": 3}}},
                 "type": {"qualType": "int"}, "value": "1"}
              ]}]}]}]},
    {"id": "0x30", "kind": "VarDecl",
     "loc": {"offset": 80, "line": 4, "col": 5, "tokLen": 1},
     "range": {"begin": {"offset": 76, "col": 1, "tokLen": 4}, "end": {"offset": 80, "col": 5, "tokLen": 1}},
     "name": "c", "type": {"qualType": "char"},
     "inner": [{"id": "0x31", "kind": "CharacterLiteral",
                "range": {"begin": {"offset": 84, "col": 9, "tokLen": 3}, "end": {"offset": 84, "col": 9, "tokLen": 3}},
                "type": {"qualType": "int"}, "value": 97}]},
    {"id": "0x40", "kind": "ForStmt", "inner": [{}, {}, {}, {}, {"id": "0x41", "kind": "NullStmt"}]}
  ]
}`

func decodeMain(t *testing.T) *File {
	t.Helper()
	f, err := Decode(strings.NewReader(mainJSON), "main.c")
	require.NoError(t, err)
	return f
}

func TestDecodePositions(t *testing.T) {
	f := decodeMain(t)

	tests := []struct {
		id     string
		pos    string
		inMain bool
	}{
		{"0x10", "sq.h:1:5", false},
		{"0x11", "sq.h:1:11", false},
		{"0x20", "main.c:3:5", true},
		{"0x22", "main.c:3:18", true},
		{"0x25", "main.c:3:25", true},
		{"0x30", "main.c:4:5", true},
		{"0x31", "main.c:4:9", true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n := f.Lookup(tt.id)
			require.NotNil(t, n)
			assert.Equal(t, tt.pos, n.Pos.String())
			assert.Equal(t, tt.inMain, f.InMain(n.Pos))
		})
	}
}

func TestDecodeMacroExpansion(t *testing.T) {
	f := decodeMain(t)
	lit := f.Lookup("0x26")
	require.NotNil(t, lit)
	assert.True(t, lit.Macro)
	assert.Equal(t, "main.c:3:28", lit.Begin.String())
	assert.Equal(t, int64(70), lit.Begin.Offset())

	// The spelling location's line must not leak into later nodes.
	assert.Equal(t, "main.c:4:5", f.Lookup("0x30").Pos.String())
}

func TestDecodeValues(t *testing.T) {
	f := decodeMain(t)

	v, ok := f.Lookup("0x26").StringValue()
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	c, ok := f.Lookup("0x31").NumberValue()
	assert.True(t, ok)
	assert.Equal(t, int64(97), c)

	_, ok = f.Lookup("0x31").StringValue()
	assert.False(t, ok)
}

func TestDecodeNullChildren(t *testing.T) {
	f := decodeMain(t)
	loop := f.Lookup("0x40")
	require.Len(t, loop.Inner, 5)
	for i := 0; i < 4; i++ {
		assert.True(t, loop.Child(i).IsNull(), "child %d", i)
	}
	assert.False(t, loop.Child(4).IsNull())
	assert.True(t, loop.Child(5).IsNull())
}

func TestDecodeRejectsNonUnit(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"kind": "FunctionDecl"}`), "x.c")
	assert.Error(t, err)
	_, err = Decode(strings.NewReader(`{"kind": `), "x.c")
	assert.Error(t, err)
}

func TestSameFile(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"main.c", "main.c", true},
		{"./main.c", "main.c", true},
		{"/src/proj/main.c", "main.c", true},
		{"main.c", "/src/proj/main.c", true},
		{"/src/proj/main.c", "proj/main.c", true},
		{"/src/proj/xmain.c", "main.c", false},
		{"/a/main.c", "/b/main.c", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, SameFile(tt.a, tt.b))
		})
	}
}

func TestFindAndPrint(t *testing.T) {
	f := decodeMain(t)
	call := Find(f.Root, func(n *Node) bool { return n.Kind == "CallExpr" })
	require.NotNil(t, call)
	assert.Equal(t, "0x23", call.ID)

	var buf bytes.Buffer
	Fprint(&buf, f, f.Root, true)
	out := buf.String()
	assert.NotContains(t, out, "FunctionDecl sq ")
	assert.Contains(t, out, "FunctionDecl main 'int (void)' main.c:3:5")
	assert.Contains(t, out, "IntegerLiteral 1 'int'")
	assert.Contains(t, out, "CharacterLiteral 97 'int' main.c:4:9")
}
