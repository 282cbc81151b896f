package xcrt

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEncoding(t *testing.T) {
	r := Record{Site: 0x01020304, Dir: DirExit, Seq: 2, EntrySeq: 1, Tag: 0xdeadbeef}
	b := r.Append(nil)
	require.Len(t, b, RecordSize)
	want := []byte{
		4, 3, 2, 1,
		2,
		2, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0,
		0xef, 0xbe, 0xad, 0xde, 0, 0, 0, 0,
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("encoding mismatch (-want +got):\n%s", diff)
	}
	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestReader(t *testing.T) {
	recs := []Record{
		{Site: 7, Dir: DirEntry, Seq: 1, Tag: 11},
		{Site: 7, Dir: DirExit, Seq: 2, EntrySeq: 1, Tag: 12},
	}
	var stream []byte
	stream = append(stream, Header()...)
	for _, r := range recs {
		stream = r.Append(stream)
	}

	tests := []struct {
		name    string
		data    []byte
		want    []Record
		wantErr error
	}{
		{"whole", stream, recs, nil},
		{"empty", Header(), nil, nil},
		{"truncated", stream[:len(stream)-3], recs[:1], io.ErrUnexpectedEOF},
		{"no header", stream[HeaderSize:], nil, ErrBadHeader},
		{"version", append([]byte(Magic), 9), nil, ErrBadHeader},
		{"nothing", nil, nil, ErrBadHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAll(bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBadDirection(t *testing.T) {
	b := Record{Site: 1, Dir: 3, Seq: 1}.Append(nil)
	_, err := Decode(b)
	assert.Error(t, err)
}
