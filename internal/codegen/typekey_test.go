package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/you-not-fish/cmigrate/internal/types"
)

// list builds struct list { int v; struct list *next; } in a fresh graph,
// optionally with next declared before v.
func list(swap bool, width int64) (*types.Graph, types.ID) {
	g := types.NewGraph()
	id := g.NewRecord("list", false, nopos)
	v := types.Field{Name: "v", Type: g.Basic(types.Int)}
	if width > 0 {
		v.Bitfield, v.Width = true, width
	}
	next := types.Field{Name: "next", Type: g.NewPointer(id, false)}
	fields := []types.Field{v, next}
	if swap {
		fields = []types.Field{next, v}
	}
	g.Complete(id, fields, false, 0)
	return g, id
}

func TestTypeKey(t *testing.T) {
	g1, a := list(false, 0)
	g2, b := list(false, 0)
	assert.Equal(t, TypeKey(g1, a), TypeKey(g2, b), "same definition in two units")

	tests := []struct {
		name  string
		swap  bool
		width int64
	}{
		{"field order", true, 0},
		{"bitfield", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, id := list(tt.swap, tt.width)
			assert.NotEqual(t, TypeKey(g1, a), TypeKey(g, id))
		})
	}

	t.Run("opaque", func(t *testing.T) {
		g := types.NewGraph()
		id := g.NewRecord("list", false, nopos)
		assert.NotEqual(t, TypeKey(g1, a), TypeKey(g, id))
	})
}
