package importer

import (
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/syntax"
)

// errorf records an error for the current declaration. Only the first
// error of a declaration is kept: the declaration is dropped or stubbed
// as a whole.
func (c *importer) errorf(kind diag.Kind, pos syntax.Pos, format string, args ...interface{}) {
	if c.err != nil {
		return
	}
	err := diag.Errorf(kind, pos, format, args...)
	if c.decl != "" {
		err = err.In(c.decl)
	}
	c.err = err
}

// unsupported records an UnsupportedConstruct error at n.
func (c *importer) unsupported(n *syntax.Node, format string, args ...interface{}) {
	c.errorf(diag.UnsupportedConstruct, n.Pos, format, args...)
}

// report records a declaration-level error in the unit.
func (c *importer) report(err *diag.Error) {
	c.unit.Errors = append(c.unit.Errors, err)
	if c.conf.Error != nil {
		c.conf.Error(err)
	}
}
