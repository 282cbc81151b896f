// Package types implements the closed C type graph of one translation unit.
//
// Types never point at each other directly. Every reference is an ID into
// the unit's Graph, which is what lets recursive and mutually referential
// records exist without unbounded recursion during layout.
package types

import "fmt"

// ID identifies a type within a Graph. The zero ID is invalid.
type ID int32

// Invalid is the zero ID.
const Invalid ID = 0

func (id ID) String() string {
	return fmt.Sprintf("t%d", int32(id))
}

// Type is the interface implemented by all type descriptors.
type Type interface {
	// aType is a marker method to restrict implementations to this package.
	aType()
}

// typ is a base struct for all type implementations.
type typ struct{}

func (typ) aType() {}
