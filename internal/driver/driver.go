// Package driver runs a translation: it dumps and imports every unit of
// a compilation database in a worker pool, links the units, generates
// their Go code in a second pool and assembles the package.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/assemble"
	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/codegen"
	"github.com/you-not-fish/cmigrate/internal/config"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/importer"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
)

// Options configures a translation.
type Options struct {
	Config *config.Config

	// Frontend dumps ASTs. If nil, clang is run as configured.
	Frontend Frontend

	// Diags receives every diagnostic. If nil, a fresh collector is used.
	Diags *diag.Collector

	// Reporter displays per-unit progress. It may be nil.
	Reporter *diag.Reporter
}

// Result is the outcome of a translation.
type Result struct {
	Module *assemble.Module
	Glue   []*xcheck.Glue // C side of the instrumentation, by unit
	Diags  *diag.Collector
	Failed int // units that produced no Go code
}

// Partial reports whether anything was skipped or stubbed.
func (r *Result) Partial() bool {
	return r.Failed > 0 || r.Diags.Len() > 0
}

// unitState carries one unit through the stages.
type unitState struct {
	cmd   Command
	name  string
	unit  *ir.Unit
	trees map[*ir.FuncDecl]*relooper.Tree
	glue  *xcheck.Glue
	out   *codegen.Output
}

type driver struct {
	conf   *config.Config
	fe     Frontend
	diags  *diag.Collector
	rep    *diag.Reporter
	target *abi.Target
	sites  *xcheck.Selection
}

// Translate translates the units of cmds into one Go package. A unit
// that fails is reported and left out; Translate itself fails only when
// no package can be assembled, or when ctx is cancelled.
func Translate(ctx context.Context, cmds []Command, opts *Options) (*Result, error) {
	d, err := newDriver(opts)
	if err != nil {
		return nil, err
	}
	units := make([]*unitState, len(cmds))
	for i, name := range unitNames(cmds) {
		units[i] = &unitState{cmd: cmds[i], name: name}
	}

	// Phase 1: dump, import and structure each unit.
	if err := d.each(ctx, units, d.front); err != nil {
		return nil, err
	}

	var imported []*ir.Unit
	for _, s := range units {
		if s.unit != nil {
			imported = append(imported, s.unit)
		}
	}
	asm := d.conf.Assemble()
	plan, err := assemble.Link(imported, asm)
	if err != nil {
		return nil, err
	}
	for _, e := range plan.Errors {
		d.diags.Add(e)
	}

	// Phase 2: generate Go code with the linked names.
	gen := func(ctx context.Context, s *unitState) {
		if s.unit != nil {
			d.generate(s, plan, asm)
		}
	}
	if err := d.each(ctx, units, gen); err != nil {
		return nil, err
	}

	res := &Result{Diags: d.diags}
	var out []assemble.Unit
	for _, s := range units {
		out = append(out, assemble.Unit{Name: s.name, File: s.cmd.File, Output: s.out, Glue: s.glue != nil})
		if s.out == nil {
			res.Failed++
		}
		if s.glue != nil {
			res.Glue = append(res.Glue, s.glue)
		}
		if d.rep != nil {
			d.rep.ReportUnit(s.name, s.out != nil, d.diags.Counts(s.name).Total())
		}
	}
	sort.Slice(res.Glue, func(i, j int) bool { return res.Glue[i].Unit < res.Glue[j].Unit })
	res.Module, err = assemble.Assemble(plan, out, asm, d.diags)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func newDriver(opts *Options) (*driver, error) {
	if opts == nil {
		opts = &Options{}
	}
	conf := opts.Config
	if conf == nil {
		conf = config.Default()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	tgt, err := conf.ABI()
	if err != nil {
		return nil, err
	}
	d := &driver{
		conf:   conf,
		fe:     opts.Frontend,
		diags:  opts.Diags,
		rep:    opts.Reporter,
		target: tgt,
	}
	if d.fe == nil {
		d.fe = &Clang{Path: conf.Clang.Path, Flags: conf.Clang.Flags, ASTDir: conf.Clang.ASTDir}
	}
	if d.diags == nil {
		d.diags = diag.NewCollector(nil)
	}
	if len(conf.XCheck.Sites) > 0 {
		d.sites = xcheck.NewSelection(conf.XCheck.Sites)
	}
	return d, nil
}

// each runs stage on every unit in a pool of conf.Jobs workers. Units
// not started when ctx is done are skipped, and the context error is
// returned after the running ones finish.
func (d *driver) each(ctx context.Context, units []*unitState, stage func(context.Context, *unitState)) error {
	var g errgroup.Group
	g.SetLimit(d.conf.Jobs)
	for _, s := range units {
		s := s
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			stage(ctx, s)
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}

// front dumps, imports and structures one unit. Functions that cannot be
// structured are reported and left without a tree, so code generation
// stubs them.
func (d *driver) front(ctx context.Context, s *unitState) {
	data, err := d.fe.Dump(ctx, &s.cmd)
	if err != nil {
		d.fail(s, err)
		return
	}
	f, err := syntax.Decode(bytes.NewReader(data), s.cmd.File)
	if err != nil {
		d.fail(s, err)
		return
	}
	u, err := importer.Import(f, &importer.Config{Unit: s.name, Target: d.target, Sites: d.sites})
	if err != nil {
		d.fail(s, err)
		return
	}
	for _, e := range u.Errors {
		d.diags.AddError(s.name, e, diag.UnsupportedConstruct)
	}

	s.trees = make(map[*ir.FuncDecl]*relooper.Tree)
	sites := false
	for _, fn := range u.Funcs() {
		sites = sites || len(fn.Sites) > 0
		if fn.Body == nil {
			continue
		}
		c, err := cfg.Build(fn)
		if err != nil {
			d.diags.AddError(s.name, err, diag.UnstructurableControlFlow)
			continue
		}
		tree, err := relooper.Structure(c)
		if err != nil {
			d.diags.AddError(s.name, err, diag.UnstructurableControlFlow)
			continue
		}
		s.trees[fn] = tree
	}
	s.unit = u

	if sites {
		src, err := os.ReadFile(s.cmd.Path())
		if err != nil {
			d.diags.AddError(s.name, fmt.Errorf("reading source for cross-check glue: %w", err), diag.ParseFailure)
			return
		}
		glue, errs := xcheck.Generate(u, src)
		for _, e := range errs {
			d.diags.AddError(s.name, e, diag.UnsupportedConstruct)
		}
		s.glue = glue
	}
}

func (d *driver) generate(s *unitState, plan *assemble.Plan, asm *assemble.Config) {
	out, err := codegen.Generate(s.unit, s.trees, &codegen.Config{
		Package: asm.PackageName(),
		Names:   plan.Names[s.name],
		Runtime: d.conf.XCheck.Runtime,
		Export:  asm.Mode == assemble.Lib,
	})
	if err != nil {
		d.fail(s, err)
		return
	}
	for _, e := range out.Errors {
		d.diags.AddError(s.name, e, diag.UnsupportedConstruct)
	}
	s.out = out
}

// fail records that s produced nothing. Errors without a kind are
// front-end failures.
func (d *driver) fail(s *unitState, err error) {
	s.unit, s.out = nil, nil
	d.diags.AddError(s.name, err, diag.ParseFailure)
}
