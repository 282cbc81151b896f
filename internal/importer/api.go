// Package importer builds the IR of a C translation unit from the clang
// JSON AST: it resolves the type spellings clang attaches to every node
// into the unit's type graph and normalizes declarations, statements and
// expressions.
package importer

import (
	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
)

// Config specifies the configuration for importing.
type Config struct {
	// Unit is the unit name used in cross-check site identifiers.
	Unit string

	// Target is the ABI the AST was produced for.
	// If nil, the default target is used.
	Target *abi.Target

	// Sites selects the callees whose call sites are instrumented.
	// If nil, no call is instrumented.
	Sites *xcheck.Selection

	// Error is called for each declaration the importer drops or stubs.
	// If nil, errors are only recorded in the unit.
	Error ErrorHandler
}

// ErrorHandler is a function called for each import error.
type ErrorHandler func(err *diag.Error)

// Import builds the IR of the translation unit f. Declarations that cannot
// be represented are recorded in Unit.Errors; Import itself fails only when
// the AST is unusable as a whole.
func Import(f *syntax.File, conf *Config) (*ir.Unit, error) {
	if conf == nil {
		conf = &Config{}
	}
	target := conf.Target
	if target == nil {
		t, err := abi.Lookup(abi.DefaultTarget)
		if err != nil {
			return nil, err
		}
		target = t
	}
	if f == nil || f.Root == nil {
		return nil, diag.Errorf(diag.ParseFailure, syntax.Pos{}, "empty AST")
	}

	g := types.NewGraph()
	unit := &ir.Unit{
		Name:  conf.Unit,
		File:  f.Name,
		Graph: g,
		Sizes: types.NewSizes(g, target),
	}
	c := newImporter(conf, f, unit)
	c.importFile()
	return unit, nil
}
