package xcheck

import (
	"fmt"

	"github.com/you-not-fish/cmigrate/xcrt"
)

// State is the state of one checked call.
type State uint8

const (
	Idle         State = iota // no entry recorded
	ArgsCaptured              // entry recorded, exit pending
	Completed                 // exit recorded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ArgsCaptured:
		return "ArgsCaptured"
	case Completed:
		return "Completed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Call is one checked call of a stream.
type Call struct {
	Site  uint32
	Entry xcrt.Record
	Exit  xcrt.Record // zero unless State is Completed
	State State
}

// Report is the result of validating a stream.
type Report struct {
	Records int
	Calls   []*Call
	// Pending lists the calls whose exit was never recorded. In a stream
	// of a terminated process they returned neither normally nor at all:
	// the process crashed or exited inside them.
	Pending []*Call
	Errors  []error
}

// Valid reports whether the stream is well formed.
func (r *Report) Valid() bool { return len(r.Errors) == 0 }

// Validate replays recs through the per-call state machine. Sequence
// numbers must count up from 1, entry records carry no entry sequence,
// and each exit must complete a pending call of the same site.
func Validate(recs []xcrt.Record) *Report {
	rep := &Report{Records: len(recs)}
	open := make(map[uint64]*Call)
	for i, r := range recs {
		if want := uint64(i + 1); r.Seq != want {
			rep.Errors = append(rep.Errors, fmt.Errorf("record %d: sequence number %d, want %d", i, r.Seq, want))
		}
		switch r.Dir {
		case xcrt.DirEntry:
			if r.EntrySeq != 0 {
				rep.Errors = append(rep.Errors, fmt.Errorf("%v: entry record names entry #%d", r, r.EntrySeq))
			}
			c := &Call{Site: r.Site, Entry: r, State: ArgsCaptured}
			open[r.Seq] = c
			rep.Calls = append(rep.Calls, c)
		case xcrt.DirExit:
			c := open[r.EntrySeq]
			switch {
			case c == nil:
				rep.Errors = append(rep.Errors, fmt.Errorf("%v: no pending call entered at #%d", r, r.EntrySeq))
			case c.Site != r.Site:
				rep.Errors = append(rep.Errors, fmt.Errorf("%v: entry #%d is of site %08x", r, r.EntrySeq, c.Site))
			default:
				c.Exit, c.State = r, Completed
				delete(open, r.EntrySeq)
			}
		default:
			rep.Errors = append(rep.Errors, fmt.Errorf("%v: bad direction", r))
		}
	}
	for _, c := range rep.Calls {
		if c.State == ArgsCaptured {
			rep.Pending = append(rep.Pending, c)
		}
	}
	return rep
}

// Divergence is the first difference between two streams.
type Divergence struct {
	Index  int          // position of the records in their streams
	A, B   *xcrt.Record // nil where a stream ended
	Reason string
}

func (d *Divergence) String() string {
	show := func(r *xcrt.Record) string {
		if r == nil {
			return "end of stream"
		}
		return r.String()
	}
	return fmt.Sprintf("record %d: %s\n\tA: %s\n\tB: %s", d.Index, d.Reason, show(d.A), show(d.B))
}

// Compare pairs the records of two streams by sequence number and
// returns the first divergence, or nil if the streams agree.
func Compare(a, b []xcrt.Record) *Divergence {
	for i := 0; i < len(a) || i < len(b); i++ {
		d := &Divergence{Index: i}
		if i < len(a) {
			d.A = &a[i]
		}
		if i < len(b) {
			d.B = &b[i]
		}
		switch {
		case d.A == nil:
			d.Reason = "stream A ends"
		case d.B == nil:
			d.Reason = "stream B ends"
		case d.A.Site != d.B.Site:
			d.Reason = "different call sites"
		case d.A.Dir != d.B.Dir:
			d.Reason = "different directions"
		case d.A.EntrySeq != d.B.EntrySeq:
			d.Reason = "exits of different calls"
		case d.A.Tag != d.B.Tag && d.A.Dir == xcrt.DirEntry:
			d.Reason = "different arguments"
		case d.A.Tag != d.B.Tag:
			d.Reason = "different result"
		default:
			continue
		}
		return d
	}
	return nil
}
