package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/you-not-fish/cmigrate/internal/target"
)

// Command is one entry of a compilation database.
type Command struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// Path returns the absolute path of the source file.
func (c *Command) Path() string {
	if filepath.IsAbs(c.File) {
		return c.File
	}
	return filepath.Join(c.Directory, c.File)
}

// Args returns the command line as a list of words.
func (c *Command) Args() ([]string, error) {
	if len(c.Arguments) > 0 {
		return c.Arguments, nil
	}
	return splitCommand(c.Command)
}

// ReadCompDB reads a compile_commands.json file. Entries for the same
// source file after the first are dropped.
func ReadCompDB(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	seen := make(map[string]bool)
	out := cmds[:0]
	for i, c := range cmds {
		if c.File == "" {
			return nil, fmt.Errorf("%s: entry %d has no file", path, i)
		}
		if c.Command == "" && len(c.Arguments) == 0 {
			return nil, fmt.Errorf("%s: entry for %s has neither command nor arguments", path, c.File)
		}
		if seen[c.Path()] {
			continue
		}
		seen[c.Path()] = true
		out = append(out, c)
	}
	return out, nil
}

// splitCommand splits a shell command line into words, honoring single
// and double quotes and backslash escapes.
func splitCommand(s string) ([]string, error) {
	var words []string
	var w strings.Builder
	inWord := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				w.WriteByte(c)
			}
		case quote == '"':
			switch {
			case c == '"':
				quote = 0
			case c == '\\' && i+1 < len(s) && strings.IndexByte(`"\$`+"`", s[i+1]) >= 0:
				i++
				w.WriteByte(s[i])
			default:
				w.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inWord = true
		case c == '\\':
			if i+1 < len(s) {
				i++
				w.WriteByte(s[i])
			}
			inWord = true
		case c == ' ' || c == '\t' || c == '\n':
			if inWord {
				words = append(words, w.String())
				w.Reset()
				inWord = false
			}
		default:
			w.WriteByte(c)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in command", quote)
	}
	if inWord {
		words = append(words, w.String())
	}
	return words, nil
}

// reservedStems are file names the assembler writes itself.
var reservedStems = map[string]bool{"types": true, "externs": true, "support": true, "main": true}

// buildSuffixes are file name suffixes the go tool treats as build
// constraints.
var buildSuffixes = map[string]bool{
	"test": true,
	"aix":  true, "android": true, "darwin": true, "dragonfly": true, "freebsd": true,
	"illumos": true, "ios": true, "js": true, "linux": true, "netbsd": true,
	"openbsd": true, "plan9": true, "solaris": true, "wasip1": true, "windows": true,
	"386": true, "amd64": true, "arm": true, "arm64": true, "loong64": true, "mips": true,
	"mipsle": true, "mips64": true, "mips64le": true, "ppc64": true, "ppc64le": true,
	"riscv64": true, "s390x": true, "wasm": true,
}

// unitNames derives one unit name per command from the source file base
// name. Names are identifiers, distinct, and safe as Go file names.
func unitNames(cmds []Command) []string {
	taken := make(map[string]bool)
	names := make([]string, len(cmds))
	for i, c := range cmds {
		base := filepath.Base(c.File)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		name := strings.TrimSuffix(target.Ident(base), "_")
		if name == "" {
			name = "unit"
		}
		if j := strings.LastIndexByte(name, '_'); reservedStems[name] || j >= 0 && buildSuffixes[name[j+1:]] {
			name += "_c"
		}
		cand := name
		for n := 2; taken[cand]; n++ {
			cand = fmt.Sprintf("%s_%d", name, n)
		}
		taken[cand] = true
		names[i] = cand
	}
	return names
}
