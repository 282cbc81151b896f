package diag

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Log levels accepted by the reporter.
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // only unit failures and the closing summary
	LogLevelWarning        // failures, skipped declarations and the closing summary
	LogLevelVerbose        // everything above plus per-unit progress (DEFAULT)
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// ParseLogLevel converts a command line log level name into a log level.
func ParseLogLevel(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "warn":
		return LogLevelWarning
	}
	return LogLevelVerbose
}

// Reporter displays diagnostics and progress. All methods are safe for
// concurrent use.
type Reporter struct {
	LogLevel int

	m         sync.Mutex
	startTime time.Time
	failed    int
}

// NewReporter returns a reporter displaying messages at or below loglevel.
func NewReporter(loglevel int) *Reporter {
	return &Reporter{LogLevel: loglevel, startTime: time.Now()}
}

// Report displays one diagnostic. Parse failures are errors since they
// lose a whole unit; everything else is a warning about one declaration.
func (r *Reporter) Report(d Diagnostic) {
	r.m.Lock()
	defer r.m.Unlock()

	if d.Kind == ParseFailure {
		r.failed++
		if r.LogLevel >= LogLevelError {
			r.displayBanner(d, true)
		}
		return
	}
	if r.LogLevel >= LogLevelWarning {
		r.displayBanner(d, false)
	}
}

func (r *Reporter) displayBanner(d Diagnostic, isError bool) {
	fmt.Print("-- ")
	label := d.Kind.String()
	if isError {
		errorStyleBG.Print(label)
	} else {
		warnStyleBG.Print(label)
	}
	fmt.Print(" ")

	name := filepath.Base(d.Unit)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}
	if dashes := bannerLen - len(name) - len(label) - 1; dashes > 0 {
		fmt.Print(strings.Repeat("-", dashes) + " ")
	}
	successColorFG.Println(name)

	msg := d.Msg
	if d.Decl != "" {
		msg = d.Decl + ": " + msg
	}
	if d.Pos.IsValid() {
		msg = d.Pos.String() + ": " + msg
	}
	if isError {
		errorColorFG.Println(msg)
	} else {
		warnColorFG.Println(msg)
	}
}

// ReportUnit displays the outcome of one translation unit.
func (r *Reporter) ReportUnit(unit string, ok bool, skipped int) {
	if r.LogLevel < LogLevelVerbose {
		return
	}
	r.m.Lock()
	defer r.m.Unlock()

	switch {
	case !ok:
		errorStyleBG.Print("Failed")
		errorColorFG.Println(" " + unit)
	case skipped > 0:
		warnStyleBG.Print("Partial")
		warnColorFG.Println(fmt.Sprintf(" %s (%d skipped)", unit, skipped))
	default:
		successStyleBG.Print("Translated")
		successColorFG.Println(" " + unit)
	}
}

// ReportError displays an error that is not tied to a unit.
func (r *Reporter) ReportError(tag string, err error) {
	if r.LogLevel < LogLevelError {
		return
	}
	r.m.Lock()
	defer r.m.Unlock()
	errorStyleBG.Print(tag)
	errorColorFG.Println(" " + err.Error())
}

// ReportFinished displays the closing summary with per-kind counts.
func (r *Reporter) ReportFinished(outDir string, counts Counts) {
	if r.LogLevel < LogLevelError {
		return
	}
	r.m.Lock()
	defer r.m.Unlock()

	if counts.Total() > 0 && r.LogLevel >= LogLevelWarning {
		for _, k := range Kinds() {
			if counts[k] > 0 {
				warnColorFG.Println(fmt.Sprintf("  %-26s %d", k, counts[k]))
			}
		}
	}

	elapsed := time.Since(r.startTime).Seconds()
	switch {
	case r.failed > 0:
		errorStyleBG.Print("Done")
		errorColorFG.Println(fmt.Sprintf(" %d unit(s) failed; output in %s (%.3fs)", r.failed, outDir, elapsed))
	case counts.Total() > 0:
		warnStyleBG.Print("Done")
		warnColorFG.Println(fmt.Sprintf(" partial translation in %s (%.3fs)", outDir, elapsed))
	default:
		successStyleBG.Print("Done")
		successColorFG.Println(fmt.Sprintf(" %s (%.3fs)", outDir, elapsed))
	}
}
