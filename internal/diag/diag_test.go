package diag

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/cmigrate/internal/syntax"
)

func TestErrorString(t *testing.T) {
	e := Errorf(UnsupportedType, syntax.NewPos("a.c", 3, 7), "variable length array member %q", "buf")
	assert.Equal(t, `a.c:3:7: UnsupportedType: variable length array member "buf"`, e.Error())

	named := e.In("struct packet")
	assert.Equal(t, `a.c:3:7: UnsupportedType: struct packet: variable length array member "buf"`, named.Error())
	assert.Empty(t, e.Decl, "In must not mutate the receiver")
	assert.Same(t, named, named.In("other"))
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("lowering f: %w", Errorf(UnstructurableControlFlow, syntax.Pos{}, "goto missing"))
	k, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, UnstructurableControlFlow, k)

	_, ok = KindOf(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestFromErrorFallback(t *testing.T) {
	d := FromError("u.c", fmt.Errorf("clang exited with status 1"), ParseFailure)
	assert.Equal(t, ParseFailure, d.Kind)
	assert.Equal(t, "u.c", d.Unit)
	assert.Equal(t, "u.c: -: ParseFailure: clang exited with status 1", d.String())
}

func TestCollectorConcurrentAndSorted(t *testing.T) {
	var seen int
	var mu sync.Mutex
	c := NewCollector(func(Diagnostic) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unit := fmt.Sprintf("u%d.c", i%2)
			c.Add(Diagnostic{Unit: unit, Pos: syntax.NewPos(unit, uint32(8-i), 1), Kind: UnsupportedConstruct})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 8, c.Len())
	assert.Equal(t, 8, seen)

	got := c.Sorted()
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Unit == cur.Unit {
			assert.LessOrEqual(t, prev.Pos.Line(), cur.Pos.Line())
		} else {
			assert.Less(t, prev.Unit, cur.Unit)
		}
	}

	counts := c.Counts("u0.c")
	assert.Equal(t, 4, counts[UnsupportedConstruct])
	assert.Equal(t, 8, c.Counts("").Total())
}

func TestKindNames(t *testing.T) {
	for _, k := range Kinds() {
		assert.NotContains(t, k.String(), "Kind(", "kind %d has no name", k)
	}
	assert.Equal(t, "Kind(200)", Kind(200).String())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelSilent, ParseLogLevel("silent"))
	assert.Equal(t, LogLevelWarning, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelVerbose, ParseLogLevel("verbose"))
	assert.Equal(t, LogLevelVerbose, ParseLogLevel(""))
}
