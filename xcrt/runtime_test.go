package xcrt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointOrder(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	const f, g = 0xf, 0x9
	call := func(site uint32, arg int32) int32 {
		seq := Enter(site, Fold(Int(uint64(arg), 4)))
		r := arg * 2
		Exit(site, seq, Int(uint64(r), 4))
		return r
	}
	call(f, 1)
	call(g, 2)
	call(f, 3)

	recs, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 6)

	sites := []uint32{f, f, g, g, f, f}
	for i, r := range recs {
		assert.Equal(t, uint64(i+1), r.Seq)
		assert.Equal(t, sites[i], r.Site)
		if i%2 == 0 {
			assert.Equal(t, DirEntry, r.Dir)
			assert.Zero(t, r.EntrySeq)
		} else {
			assert.Equal(t, DirExit, r.Dir)
			assert.Equal(t, recs[i-1].Seq, r.EntrySeq)
		}
	}
	assert.Equal(t, Fold(Int(3, 4)), recs[4].Tag)
	assert.Equal(t, Int(6, 4), recs[5].Tag)
}

func TestNoOutput(t *testing.T) {
	SetOutput(nil)
	assert.Zero(t, Enter(1, 0))
}
