package syntax

import "fmt"

// Pos represents a position in a C source file as reported by the front end.
// The zero value is an invalid position.
type Pos struct {
	filename string // source file name
	line     uint32 // 1-based line number
	col      uint32 // 1-based column number (byte offset in line)
	offset   int64  // 0-based byte offset in the file, -1 if unknown
}

// NewPos creates a new Pos with the given filename, line, and column.
// Line and column numbers are 1-based. The byte offset is unknown.
func NewPos(filename string, line, col uint32) Pos {
	return Pos{filename: filename, line: line, col: col, offset: -1}
}

// NewPosOffset is like NewPos but also records the byte offset of the position.
func NewPosOffset(filename string, line, col uint32, offset int64) Pos {
	return Pos{filename: filename, line: line, col: col, offset: offset}
}

// String returns a string representation of the position in the format
// "filename:line:col" or "line:col" if filename is empty.
func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.filename, p.line, p.col)
	}
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// IsValid reports whether the position is valid.
// A position is valid if line > 0.
func (p Pos) IsValid() bool {
	return p.line > 0
}

// Line returns the 1-based line number.
func (p Pos) Line() uint32 {
	return p.line
}

// Col returns the 1-based column number (byte offset in line).
func (p Pos) Col() uint32 {
	return p.col
}

// Filename returns the source file name.
func (p Pos) Filename() string {
	return p.filename
}

// Offset returns the byte offset of the position, or -1 if it is unknown.
func (p Pos) Offset() int64 {
	if !p.IsValid() {
		return -1
	}
	return p.offset
}

// Compare orders positions by file name, line and column.
// It returns -1, 0 or +1.
func (p Pos) Compare(q Pos) int {
	switch {
	case p.filename < q.filename:
		return -1
	case p.filename > q.filename:
		return 1
	case p.line < q.line:
		return -1
	case p.line > q.line:
		return 1
	case p.col < q.col:
		return -1
	case p.col > q.col:
		return 1
	}
	return 0
}
