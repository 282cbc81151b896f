package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ComedicChimera/olive"

	"github.com/you-not-fish/cmigrate/internal/config"
	"github.com/you-not-fish/cmigrate/internal/diag"
	"github.com/you-not-fish/cmigrate/internal/driver"
)

// execTranslateCommand runs the translate subcommand and handles all errors.
func execTranslateCommand(result *olive.ArgParseResult, rep *diag.Reporter) int {
	compdb, _ := result.PrimaryArg()
	conf, err := loadConfig(compdb, stringArg(result, "config"))
	if err != nil {
		rep.ReportError("Config Error", err)
		return exitError
	}
	if err := applyArgs(conf, result); err != nil {
		rep.ReportError("Config Error", err)
		return exitError
	}
	return runTranslate(compdb, conf, rep)
}

// runTranslate translates the database at compdb and writes the package.
func runTranslate(compdb string, conf *config.Config, rep *diag.Reporter) int {
	cmds, err := driver.ReadCompDB(compdb)
	if err != nil {
		rep.ReportError("Compilation Database Error", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	diags := diag.NewCollector(rep.Report)
	res, err := driver.Translate(ctx, cmds, &driver.Options{Config: conf, Diags: diags, Reporter: rep})
	if err != nil {
		rep.ReportError("Translation Error", err)
		return exitError
	}
	if err := driver.Write(conf.Out, res); err != nil {
		rep.ReportError("Output Error", err)
		return exitError
	}
	rep.ReportFinished(conf.Out, diags.Counts(""))

	if res.Partial() && !conf.AllowPartial {
		return exitPartial
	}
	return exitOK
}

// loadConfig reads the project file: the one named on the command line,
// or cmigrate.toml next to the database if there is one.
func loadConfig(compdb, path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path = filepath.Join(filepath.Dir(compdb), config.FileName)
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.Default(), nil
}

// applyArgs overrides project file settings with command line arguments.
func applyArgs(conf *config.Config, result *olive.ArgParseResult) error {
	set := func(dst *string, name string) {
		if v := stringArg(result, name); v != "" {
			*dst = v
		}
	}
	set(&conf.Out, "out")
	set(&conf.Mode, "mode")
	set(&conf.Entry, "entry")
	set(&conf.Target, "target")
	set(&conf.Package, "package")
	set(&conf.Clang.ASTDir, "ast-dir")
	if v := stringArg(result, "jobs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("jobs: %w", err)
		}
		conf.Jobs = n
	}
	if v := stringArg(result, "xcheck"); v != "" {
		conf.XCheck.Sites = strings.Split(v, ",")
	}
	if result.HasFlag("allow-partial") {
		conf.AllowPartial = true
	}
	return conf.Validate()
}
