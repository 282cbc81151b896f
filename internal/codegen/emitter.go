package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// emitter accumulates Go source text. Indentation is cosmetic since the
// result goes through go/format, but it keeps unformatted dumps readable.
type emitter struct {
	buf    bytes.Buffer
	err    error // first write error
	indent int
}

func newEmitter() *emitter {
	return &emitter{}
}

// emit writes a formatted, indented line.
func (e *emitter) emit(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	e.buf.WriteString(strings.Repeat("\t", e.indent))
	_, e.err = fmt.Fprintf(&e.buf, format+"\n", args...)
}

// line writes text as one indented line. Unlike emit it does not
// interpret the text as a format.
func (e *emitter) line(text string) {
	e.emit("%s", text)
}

// emitRaw writes text as is.
func (e *emitter) emitRaw(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.buf.WriteString(s)
}

// emitLine writes a blank line.
func (e *emitter) emitLine() {
	if e.err != nil {
		return
	}
	e.err = e.buf.WriteByte('\n')
}

// emitComment writes a comment line.
func (e *emitter) emitComment(format string, args ...interface{}) {
	e.emit("// "+format, args...)
}

// open writes a line ending in '{' and indents.
func (e *emitter) open(format string, args ...interface{}) {
	e.emit(format+" {", args...)
	e.indent++
}

// begin writes a block header and indents.
func (e *emitter) begin(head string) {
	e.line(head + " {")
	e.indent++
}

// end closes a block opened by begin.
func (e *emitter) end() {
	e.close()
}

// close dedents and writes the closing brace.
func (e *emitter) close() {
	e.indent--
	e.emit("}")
}

// mid dedents for one line, as for "} else {" and case clauses.
func (e *emitter) mid(text string) {
	e.indent--
	e.line(text)
	e.indent++
}

// sub returns an emitter writing to a separate buffer at the same
// indentation, for text whose placement is decided later.
func (e *emitter) sub() *emitter {
	return &emitter{indent: e.indent}
}

// String returns the text written so far.
func (e *emitter) String() string {
	return e.buf.String()
}
