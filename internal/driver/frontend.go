package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// A Frontend produces the clang JSON AST of one compile command.
type Frontend interface {
	Dump(ctx context.Context, cmd *Command) ([]byte, error)
}

// Clang runs clang to dump ASTs. A pre-dumped AST is used instead when
// one exists: <file>.ast.json next to the source, or <base>.ast.json in
// ASTDir.
type Clang struct {
	Path   string   // clang binary
	Flags  []string // extra flags after the command's own
	ASTDir string
}

// Dump returns the AST of cmd. clang is only started if ctx is not done,
// and once started it runs to completion.
func (c *Clang) Dump(ctx context.Context, cmd *Command) ([]byte, error) {
	if data, ok, err := c.predumped(cmd); ok || err != nil {
		return data, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args, err := cmd.Args()
	if err != nil {
		return nil, err
	}
	argv := append(dumpArgs(args, cmd.File), c.Flags...)
	argv = append(argv, cmd.File)

	path := c.Path
	if path == "" {
		path = "clang"
	}
	x := exec.Command(path, argv...)
	x.Dir = cmd.Directory
	var stdout, stderr bytes.Buffer
	x.Stdout, x.Stderr = &stdout, &stderr
	if err := x.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("clang: %w", err)
		}
		return nil, fmt.Errorf("clang: %w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

func (c *Clang) predumped(cmd *Command) ([]byte, bool, error) {
	paths := []string{cmd.Path() + ".ast.json"}
	if c.ASTDir != "" {
		paths = append(paths, filepath.Join(c.ASTDir, filepath.Base(cmd.File)+".ast.json"))
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, true, nil
		}
		if !os.IsNotExist(err) {
			return nil, false, err
		}
	}
	return nil, false, nil
}

// dumpArgs turns a compile command into the arguments of an AST dump:
// the compiler, the source file and output options are dropped, and the
// dump flags are added.
func dumpArgs(args []string, file string) []string {
	out := []string{"-Xclang", "-ast-dump=json", "-fsyntax-only"}
	if len(args) > 0 {
		args = args[1:]
	}
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-c", a == "-S", a == "-E":
		case a == "-o", a == "-MF", a == "-MT", a == "-MQ":
			i++
		case strings.HasPrefix(a, "-o"), a == "-MD", a == "-MMD", a == "-M", a == "-MM":
		case a == file || filepath.Base(a) == filepath.Base(file) && !strings.HasPrefix(a, "-"):
		default:
			out = append(out, a)
		}
	}
	return out
}
