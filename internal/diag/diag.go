// Package diag defines the structured diagnostics produced while translating
// C translation units and the reporter that displays them.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// Kind classifies why a unit, declaration or function was not translated.
type Kind uint8

const (
	ParseFailure              Kind = iota // front end produced no AST for the unit
	UnsupportedType                       // a type cannot be represented
	UnsupportedConstruct                  // a statement or expression cannot be represented
	UnstructurableControlFlow             // goto topology has no structured mapping
	LayoutMismatch                        // emitted layout differs from the source ABI
	LinkConflict                          // external symbols disagree across units

	kindCount
)

var kindNames = [...]string{
	ParseFailure:              "ParseFailure",
	UnsupportedType:           "UnsupportedType",
	UnsupportedConstruct:      "UnsupportedConstruct",
	UnstructurableControlFlow: "UnstructurableControlFlow",
	LayoutMismatch:            "LayoutMismatch",
	LinkConflict:              "LinkConflict",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Kinds returns every diagnostic kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// Error is the error type returned by every translation stage. It carries
// enough information to become a Diagnostic once the unit is known.
type Error struct {
	Kind Kind
	Pos  syntax.Pos
	Decl string // enclosing declaration, if any
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Decl != "" {
		return fmt.Sprintf("%s: %s: %s: %s", e.Pos, e.Kind, e.Decl, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

// Errorf returns a new *Error with a formatted message.
func Errorf(kind Kind, pos syntax.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// In returns a copy of e attributed to declaration decl, unless e already
// names one.
func (e *Error) In(decl string) *Error {
	if e.Decl != "" {
		return e
	}
	c := *e
	c.Decl = decl
	return &c
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// Diagnostic is the externally observable record of one skipped item.
type Diagnostic struct {
	Unit string
	Pos  syntax.Pos
	Kind Kind
	Decl string
	Msg  string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Msg)
	if d.Decl != "" {
		s = fmt.Sprintf("%s: %s: %s: %s", d.Pos, d.Kind, d.Decl, d.Msg)
	}
	if !d.Pos.IsValid() && d.Unit != "" {
		s = d.Unit + ": " + s
	}
	return s
}

// FromError converts err into a diagnostic for unit. Errors that are not
// *Error values are classified as fallback.
func FromError(unit string, err error, fallback Kind) Diagnostic {
	var de *Error
	if errors.As(err, &de) {
		return Diagnostic{Unit: unit, Pos: de.Pos, Kind: de.Kind, Decl: de.Decl, Msg: de.Msg}
	}
	return Diagnostic{Unit: unit, Kind: fallback, Msg: err.Error()}
}

// Counts holds the number of diagnostics per kind.
type Counts [kindCount]int

// Total returns the number of diagnostics of any kind.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Collector accumulates diagnostics from concurrently running units.
// The zero value is ready to use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
	sink  func(Diagnostic)
}

// NewCollector returns a collector that also forwards every diagnostic to
// sink as it arrives. sink may be nil.
func NewCollector(sink func(Diagnostic)) *Collector {
	return &Collector{sink: sink}
}

// Add records d.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
	if c.sink != nil {
		c.sink(d)
	}
}

// AddError records err as a diagnostic for unit.
func (c *Collector) AddError(unit string, err error, fallback Kind) {
	c.Add(FromError(unit, err, fallback))
}

// Len returns the number of diagnostics recorded so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Sorted returns the diagnostics ordered by unit, position and kind, so that
// output does not depend on worker scheduling.
func (c *Collector) Sorted() []Diagnostic {
	c.mu.Lock()
	out := append([]Diagnostic(nil), c.diags...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if cmp := a.Pos.Compare(b.Pos); cmp != 0 {
			return cmp < 0
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Decl < b.Decl
	})
	return out
}

// Counts returns per-kind counts, optionally restricted to one unit.
// An empty unit counts everything.
func (c *Collector) Counts(unit string) Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n Counts
	for _, d := range c.diags {
		if unit == "" || d.Unit == unit {
			n[d.Kind]++
		}
	}
	return n
}
