package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/abi"
	"github.com/you-not-fish/cmigrate/internal/cfg"
	"github.com/you-not-fish/cmigrate/internal/importer"
	"github.com/you-not-fish/cmigrate/internal/ir"
	"github.com/you-not-fish/cmigrate/internal/relooper"
	"github.com/you-not-fish/cmigrate/internal/syntax"
	"github.com/you-not-fish/cmigrate/internal/types"
	"github.com/you-not-fish/cmigrate/internal/xcheck"
	"github.com/you-not-fish/cmigrate/xcrt"
)

// loadUnit imports a pre-dumped AST. The main file is the AST file name
// without its .ast.json suffix.
func loadUnit(filename, targetName string) (*ir.Unit, error) {
	if targetName == "" {
		targetName = abi.DefaultTarget
	}
	tgt, err := abi.Resolve(targetName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ast, err := syntax.Decode(f, strings.TrimSuffix(filename, ".ast.json"))
	if err != nil {
		return nil, err
	}
	return importer.Import(ast, &importer.Config{Unit: "main", Target: tgt})
}

// runLayout prints the layout of every record the unit declares.
func runLayout(filename, targetName string) int {
	u, err := loadUnit(filename, targetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	g := u.Graph

	fmt.Printf("=== Record Layouts (%s) ===\n", u.Sizes.Target().Name)
	fmt.Println()

	status := exitOK
	seen := make(map[types.ID]bool)
	for _, d := range u.Decls {
		td, ok := d.(*ir.TypeDecl)
		if !ok {
			continue
		}
		id := g.Resolve(td.Type)
		r := g.Record(id)
		if r == nil || !r.Complete || seen[id] {
			continue
		}
		seen[id] = true

		l, err := u.Sizes.Layout(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			status = exitError
			continue
		}
		fmt.Printf("%s {\n", g.String(id))
		for i, field := range r.Fields {
			fl := l.Fields[i]
			name := field.Name
			if name == "" {
				name = "_"
			}
			if field.Bitfield {
				fmt.Printf("    %-10s %-15s // offset: %d, bits: %d+%d\n",
					name, g.String(field.Type), fl.ByteOffset(), fl.BitOffset%8, field.Width)
				continue
			}
			fmt.Printf("    %-10s %-15s // offset: %d, size: %d, align: %d\n",
				name, g.String(field.Type), fl.ByteOffset(), u.Sizes.Sizeof(field.Type), u.Sizes.Alignof(field.Type))
		}
		fmt.Printf("}\n")
		fmt.Printf("// size: %d, align: %d\n", l.Size, l.Align)
		fmt.Println()
	}
	return status
}

// runCFG prints the control-flow graph and region tree of each function
// definition, or only of the named one.
func runCFG(filename, only string, verify bool) int {
	u, err := loadUnit(filename, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	status := exitOK
	found := false
	for _, fn := range u.Funcs() {
		if fn.Body == nil || only != "" && fn.Name != only {
			continue
		}
		found = true
		f, err := cfg.Build(fn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			status = exitError
			continue
		}
		if verify {
			if err := cfg.Verify(f); err != nil {
				fmt.Fprintf(os.Stderr, "%s: cfg: %v\n", fn.Name, err)
				status = exitError
			}
		}
		fmt.Printf("=== %s ===\n", fn.Name)
		cfg.Fprint(os.Stdout, f)
		tree, err := relooper.Structure(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			status = exitError
			continue
		}
		if verify {
			if err := relooper.Verify(tree); err != nil {
				fmt.Fprintf(os.Stderr, "%s: regions: %v\n", fn.Name, err)
				status = exitError
			}
		}
		fmt.Println("--- regions ---")
		relooper.Fprint(os.Stdout, tree)
		fmt.Println()
	}
	if only != "" && !found {
		fmt.Fprintf(os.Stderr, "error: no function definition named %s\n", only)
		return exitError
	}
	return status
}

func readStream(path string) ([]xcrt.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := xcrt.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// runDump prints the records of a stream and validates it.
func runDump(path string) int {
	recs, err := readStream(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	for _, r := range recs {
		fmt.Println(r)
	}
	rep := xcheck.Validate(recs)
	sites := make(map[uint32]int)
	for _, c := range rep.Calls {
		sites[c.Site]++
	}
	ids := make([]uint32, 0, len(sites))
	for id := range sites {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Println()
	fmt.Printf("%d records, %d calls, %d pending\n", rep.Records, len(rep.Calls), len(rep.Pending))
	for _, id := range ids {
		fmt.Printf("  site %08x: %d calls\n", id, sites[id])
	}
	for _, c := range rep.Pending {
		fmt.Printf("pending: %s\n", c.Entry)
	}
	for _, err := range rep.Errors {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	if !rep.Valid() {
		return exitError
	}
	return exitOK
}

// runCompare reports the first divergence between two streams.
func runCompare(a, b string) int {
	ra, err := readStream(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	rb, err := readStream(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	for _, s := range []struct {
		name string
		recs []xcrt.Record
	}{{a, ra}, {b, rb}} {
		if rep := xcheck.Validate(s.recs); !rep.Valid() {
			fmt.Fprintf(os.Stderr, "%s: %v\n", s.name, rep.Errors[0])
			return exitError
		}
	}
	if d := xcheck.Compare(ra, rb); d != nil {
		fmt.Println(d)
		return exitError
	}
	fmt.Printf("streams agree (%d records)\n", len(ra))
	return exitOK
}

// runVersion prints version information.
func runVersion() int {
	fmt.Printf("cmigrate version %s\n", Version)
	fmt.Printf("go version %s\n", runtime.Version())
	return exitOK
}
