// Package xcheck implements the compile-time side of cross-checking:
// selecting call sites, generating the C glue that instruments the
// original program, and validating or comparing recorded streams.
package xcheck

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// SiteID returns the identifier of the ordinal'th call of callee inside
// function fn of unit. Both program variants derive the same ID.
func SiteID(unit, fn, callee string, ordinal int) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%s:%s:%d", unit, fn, callee, ordinal)
	return h.Sum32()
}

// Selection chooses which callees are instrumented.
type Selection struct {
	All   bool
	Names map[string]bool
}

// NewSelection builds a selection from configuration values. The single
// name "all" selects every callee.
func NewSelection(names []string) *Selection {
	s := &Selection{Names: make(map[string]bool)}
	for _, n := range names {
		if n == "all" {
			s.All = true
			continue
		}
		s.Names[n] = true
	}
	return s
}

// Selected reports whether calls to callee are instrumented.
func (s *Selection) Selected(callee string) bool {
	if s == nil {
		return false
	}
	return s.All || s.Names[callee]
}

// Empty reports whether the selection instruments nothing.
func (s *Selection) Empty() bool {
	return s == nil || !s.All && len(s.Names) == 0
}

// String lists the selection for logs.
func (s *Selection) String() string {
	if s.Empty() {
		return "none"
	}
	if s.All {
		return "all"
	}
	names := make([]string, 0, len(s.Names))
	for n := range s.Names {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprint(names)
}
