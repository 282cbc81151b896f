// Package main implements the cmigrate command.
package main

import (
	"os"

	"github.com/ComedicChimera/olive"

	"github.com/you-not-fish/cmigrate/internal/diag"
)

// Version information
const Version = "0.1.0-dev"

// Exit statuses.
const (
	exitOK      = 0
	exitError   = 1
	exitPartial = 2 // output written, but something was skipped or stubbed
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cli := olive.NewCLI("cmigrate", "cmigrate translates C translation units into Go", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	translateCmd := cli.AddSubcommand("translate", "translate the units of a compilation database", true)
	translateCmd.AddPrimaryArg("compdb", "the path to compile_commands.json", true)
	translateCmd.AddStringArg("out", "o", "the output directory", false)
	translateCmd.AddSelectorArg("mode", "m", "the output mode", false, []string{"lib", "bin"})
	translateCmd.AddStringArg("entry", "e", "the C entry function in bin mode", false)
	translateCmd.AddStringArg("config", "c", "the project file (default: cmigrate.toml next to the database)", false)
	translateCmd.AddStringArg("target", "t", "the ABI profile name or TOML file", false)
	translateCmd.AddStringArg("jobs", "j", "the number of units translated concurrently", false)
	translateCmd.AddStringArg("xcheck", "x", "comma-separated callees whose call sites are instrumented, or all", false)
	translateCmd.AddStringArg("package", "p", "the Go package name in lib mode", false)
	translateCmd.AddStringArg("ast-dir", "a", "a directory of pre-dumped <file>.ast.json ASTs", false)
	translateCmd.AddFlag("allow-partial", "ap", "exit with status 0 even when declarations were skipped")

	layoutCmd := cli.AddSubcommand("layout", "print the record layouts of a unit", true)
	layoutCmd.AddPrimaryArg("ast", "the path to a clang JSON AST", true)
	layoutCmd.AddStringArg("target", "t", "the ABI profile name or TOML file", false)

	cfgCmd := cli.AddSubcommand("cfg", "print the control-flow graphs and region trees of a unit", true)
	cfgCmd.AddPrimaryArg("ast", "the path to a clang JSON AST", true)
	cfgCmd.AddStringArg("func", "f", "only print this function", false)
	cfgCmd.AddFlag("verify", "v", "verify the graphs and region trees")

	xcheckCmd := cli.AddSubcommand("xcheck", "inspect cross-check streams", true)
	dumpCmd := xcheckCmd.AddSubcommand("dump", "print and validate a stream", true)
	dumpCmd.AddPrimaryArg("stream", "the stream file", true)
	compareCmd := xcheckCmd.AddSubcommand("compare", "report the first divergence of two streams", true)
	compareCmd.AddPrimaryArg("stream", "the stream of the C program", true)
	compareCmd.AddStringArg("with", "w", "the stream of the translated program", true)

	cli.AddSubcommand("version", "print the cmigrate version", false)

	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		diag.NewReporter(diag.LogLevelError).ReportError("CLI Usage Error", err)
		return exitError
	}

	rep := diag.NewReporter(diag.ParseLogLevel(result.Arguments["loglevel"].(string)))
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "translate":
		return execTranslateCommand(subResult, rep)
	case "layout":
		path, _ := subResult.PrimaryArg()
		return runLayout(path, stringArg(subResult, "target"))
	case "cfg":
		path, _ := subResult.PrimaryArg()
		return runCFG(path, stringArg(subResult, "func"), subResult.HasFlag("verify"))
	case "xcheck":
		return execXCheckCommand(subResult)
	case "version":
		return runVersion()
	}
	return exitError
}

func execXCheckCommand(result *olive.ArgParseResult) int {
	subcmdName, subResult, _ := result.Subcommand()
	path, _ := subResult.PrimaryArg()
	switch subcmdName {
	case "dump":
		return runDump(path)
	case "compare":
		return runCompare(path, stringArg(subResult, "with"))
	}
	return exitError
}

// stringArg returns the value of an optional string argument, or "".
func stringArg(result *olive.ArgParseResult, name string) string {
	if v, ok := result.Arguments[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
