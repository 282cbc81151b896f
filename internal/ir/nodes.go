// Package ir defines the intermediate representation the importer builds
// from a clang AST: declarations, statements and expressions of one C
// translation unit, each carrying a source position and, for expressions,
// the ID of its type in the unit's type graph.
package ir

import (
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
)

// ----------------------------------------------------------------------------
// Interfaces
//
// There are 3 classes of nodes: Expressions, Statements, and Declarations.
// The sets are closed; code that lowers them switches over every variant.

// Node is the interface implemented by all IR nodes.
type Node interface {
	Pos() syntax.Pos
	aNode()
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	Type() types.ID
	aExpr()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// Decl is the interface for all declaration nodes.
type Decl interface {
	Node
	DeclName() string
	aDecl()
}

// ----------------------------------------------------------------------------
// Base node types

type node struct {
	pos syntax.Pos
}

func (n *node) Pos() syntax.Pos { return n.pos }
func (n *node) aNode()          {}

// SetPos sets the node position. It is used by the importer while
// building nodes.
func (n *node) SetPos(pos syntax.Pos) { n.pos = pos }

type expr struct {
	node
	typ types.ID
}

func (e *expr) Type() types.ID { return e.typ }
func (*expr) aExpr()           {}

// SetType sets the expression type.
func (e *expr) SetType(t types.ID) { e.typ = t }

type stmt struct{ node }

func (*stmt) aStmt() {}

type decl struct{ node }

func (*decl) aDecl() {}
