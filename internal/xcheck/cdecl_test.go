package xcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

func TestCDecl(t *testing.T) {
	g := types.NewGraph()
	intT := g.Basic(types.Int)
	charT := g.Basic(types.Char)
	voidT := g.Basic(types.Void)
	point := g.NewRecord("point", false, syntax.Pos{})
	cmp := g.NewFunc(intT, []types.ID{g.NewPointer(voidT, true), g.NewPointer(voidT, true)}, false, false)

	tests := []struct {
		name string
		t    types.ID
		want string
	}{
		{"basic", intT, "int x"},
		{"pointer to const", g.NewPointer(charT, true), "char const *x"},
		{"record", g.NewPointer(point, false), "struct point *x"},
		{"typedef", g.NewTypedef("size_t", g.Basic(types.ULong), syntax.Pos{}), "size_t x"},
		{"function pointer", g.NewPointer(cmp, false), "int (*x)(void const *, void const *)"},
		{"pointer to array", g.NewPointer(g.NewArray(intT, 4), false), "int (*x)[4]"},
		{"array of pointers", g.NewArray(g.NewPointer(intT, false), 4), "int *x[4]"},
		{"anonymous enum", g.NewEnum("", g.Basic(types.UInt), syntax.Pos{}), "unsigned int x"},
		{"variadic", g.NewPointer(g.NewFunc(voidT, []types.ID{intT}, true, false), false), "void (*x)(int, ...)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cDecl(g, tt.t, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("anonymous record", func(t *testing.T) {
		_, err := cDecl(g, g.NewRecord("", false, syntax.Pos{}), "x")
		k, ok := diag.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, diag.UnsupportedType, k)
	})
}
