package syntax

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// File is a decoded translation unit.
type File struct {
	Name string // main source file, as passed to the front end
	Root *Node  // the TranslationUnitDecl

	index map[string]*Node
}

// Decode reads a clang JSON AST dump for the translation unit whose main
// file is filename, and resolves every node's position.
func Decode(r io.Reader, filename string) (*File, error) {
	var root Node
	dec := json.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding AST of %s: %w", filename, err)
	}
	if root.Kind != "TranslationUnitDecl" {
		return nil, fmt.Errorf("decoding AST of %s: root is %q, not TranslationUnitDecl", filename, root.Kind)
	}
	f := &File{Name: filename, Root: &root, index: make(map[string]*Node)}
	t := &tracker{}
	t.walk(&root, f.index)
	return f, nil
}

// Lookup returns the node with the given clang id, or nil.
func (f *File) Lookup(id string) *Node {
	return f.index[id]
}

// InMain reports whether pos lies in the main file rather than in an
// included header.
func (f *File) InMain(pos Pos) bool {
	return pos.IsValid() && SameFile(pos.Filename(), f.Name)
}

// SameFile reports whether two file names written by the front end refer
// to the same file. Names may be relative to different directories, so a
// relative name matches any path it is a suffix of.
func SameFile(a, b string) bool {
	a, b = filepath.ToSlash(filepath.Clean(a)), filepath.ToSlash(filepath.Clean(b))
	switch {
	case a == b:
		return true
	case !filepath.IsAbs(b) && strings.HasSuffix(a, "/"+b):
		return true
	case !filepath.IsAbs(a) && strings.HasSuffix(b, "/"+a):
		return true
	}
	return false
}

// tracker undoes clang's location compression: a location omits its file
// and line when they equal those of the previously written location, so
// positions must be resolved in document order.
type tracker struct {
	file string
	line int
}

func (t *tracker) walk(n *Node, index map[string]*Node) {
	if n == nil {
		return
	}
	if n.ID != "" {
		index[n.ID] = n
	}
	if n.Loc != nil {
		n.Pos, n.TokLen, n.Macro = t.loc(n.Loc)
	}
	if n.Range != nil {
		var tokLen int
		var macro bool
		n.Begin, tokLen, macro = t.loc(&n.Range.Begin)
		n.End, _, _ = t.loc(&n.Range.End)
		if n.Loc == nil {
			n.Pos, n.TokLen, n.Macro = n.Begin, tokLen, macro
		}
	}
	for _, c := range n.ArrayFiller {
		t.walk(c, index)
	}
	for _, c := range n.Inner {
		t.walk(c, index)
	}
}

func (t *tracker) loc(l *Loc) (pos Pos, tokLen int, macro bool) {
	if l.SpellingLoc != nil || l.ExpansionLoc != nil {
		t.bare(l.SpellingLoc)
		pos = t.bare(l.ExpansionLoc)
		if l.ExpansionLoc != nil {
			tokLen = l.ExpansionLoc.TokLen
		}
		return pos, tokLen, true
	}
	return t.bare(l), l.TokLen, false
}

func (t *tracker) bare(l *Loc) Pos {
	if l == nil {
		return Pos{}
	}
	if l.File != "" {
		t.file = l.File
	}
	if l.Line != 0 {
		t.line = l.Line
	}
	if l.Col == 0 || t.line == 0 {
		return Pos{}
	}
	return NewPosOffset(t.file, uint32(t.line), uint32(l.Col), l.Offset)
}
