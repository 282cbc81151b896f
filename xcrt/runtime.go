package xcrt

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// OutputEnv names the file the stream is written to. Without it, checked
// calls record nothing.
const OutputEnv = "XCHECK_OUT"

var rt struct {
	once sync.Once
	mu   sync.Mutex
	w    io.Writer
	seq  uint64
	err  error
}

func open() {
	path := os.Getenv(OutputEnv)
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xcrt: %v\n", err)
		return
	}
	// f stays open until exit. Records are not buffered.
	start(f)
}

func start(w io.Writer) {
	rt.w, rt.seq, rt.err = w, 0, nil
	if _, err := w.Write(Header()); err != nil {
		rt.err = err
	}
}

// SetOutput directs the stream of this process to w, starting a new
// stream. It replaces XCHECK_OUT and is meant for tests.
func SetOutput(w io.Writer) {
	rt.once.Do(func() {})
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if w == nil {
		rt.w = nil
		return
	}
	start(w)
}

func emit(site uint32, dir Dir, entrySeq, tag uint64) uint64 {
	rt.once.Do(open)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.w == nil || rt.err != nil {
		return 0
	}
	rt.seq++
	r := Record{Site: site, Dir: dir, Seq: rt.seq, EntrySeq: entrySeq, Tag: tag}
	var buf [RecordSize]byte
	if _, err := rt.w.Write(r.Append(buf[:0])); err != nil {
		rt.err = err
		fmt.Fprintf(os.Stderr, "xcrt: %v\n", err)
	}
	return rt.seq
}

// Enter records the entry checkpoint of a call at site and returns its
// sequence number, which the matching Exit carries.
func Enter(site uint32, args uint64) uint64 {
	return emit(site, DirEntry, 0, args)
}

// Exit records the exit checkpoint of the call that entered with
// sequence number entrySeq. Functions returning void use tag 0.
func Exit(site uint32, entrySeq, tag uint64) {
	emit(site, DirExit, entrySeq, tag)
}
