package cfg

// An Oracle decides which successor a conditional terminator takes. It
// returns an index into b.Succs.
type Oracle func(b *Block) int

// Walk executes f from its entry, asking o at every if and switch block,
// and returns the IDs of the blocks visited in order. Done is false when
// the walk was cut off after limit blocks instead of reaching a return.
func Walk(f *Func, o Oracle, limit int) (trace []int, done bool) {
	b := f.Entry
	for len(trace) < limit {
		trace = append(trace, b.ID)
		switch b.Kind {
		case BlockReturn, BlockUnreachable:
			return trace, true
		case BlockPlain:
			b = b.Succs[0]
		default:
			b = b.Succs[o(b)]
		}
	}
	return trace, false
}
