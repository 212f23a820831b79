package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/mossy/internal/scoring"
)

// Package output formats CLI messages, tables and scores.
//
// Messages go through UI so commands can be silenced in tests and redirected
// to stderr when stdout carries a protocol.

// UI provides colored output and respects verbose/dry-run modes.
type UI struct {
	Verbose bool
	DryRun  bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")

	cyan   = color.New(color.FgHiCyan).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
)

func Cyan(s string) string   { return cyan(s) }
func Green(s string) string  { return green(s) }
func Yellow(s string) string { return yellow(s) }
func Red(s string) string    { return red(s) }

// bandColor picks the color a score band is shown in.
func bandColor(b scoring.Band) func(a ...any) string {
	switch b {
	case scoring.BandPerfect, scoring.BandExcellent:
		return green
	case scoring.BandGood:
		return cyan
	case scoring.BandFair:
		return yellow
	default:
		return red
	}
}

// ScoreColor returns the score colored by its progress band.
func ScoreColor(score int) string {
	return bandColor(scoring.ProgressBand(score))(strconv.Itoa(score))
}

// BandColor returns the band name in its own color.
func BandColor(b scoring.Band) string {
	return bandColor(b)(string(b))
}

const barCells = 10

// ScoreBar renders a score as a ten cell bar colored by band.
func ScoreBar(score int) string {
	filled := min(barCells, max(0, score/barCells))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
	return bandColor(scoring.ProgressBand(score))(bar)
}

// Checkbox renders a task's checked state.
func Checkbox(done bool) string {
	if done {
		return green("[x]")
	}
	return "[ ]"
}

// PartColor colors a morning or afternoon status.
func PartColor(status scoring.PartStatus) string {
	switch status {
	case scoring.PartComplete:
		return green(string(status))
	case scoring.PartIncomplete:
		return yellow(string(status))
	default:
		return string(status)
	}
}

func line(w io.Writer, prefix, format string, a []any) {
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, a...))
}

func (u *UI) Info(format string, a ...any)    { line(u.Out, infoPrefix, format, a) }
func (u *UI) Success(format string, a ...any) { line(u.Out, successPrefix, format, a) }
func (u *UI) Warning(format string, a ...any) { line(u.ErrOut, warningPrefix, format, a) }
func (u *UI) Error(format string, a ...any)   { line(u.ErrOut, errorPrefix, format, a) }

// VerboseLog prints only with --verbose.
func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		line(u.Out, verbosePrefix, format, a)
	}
}

// DryRunMsg reports an action skipped by --dry-run.
func (u *UI) DryRunMsg(format string, a ...any) {
	if u.DryRun {
		u.Warning("[DRY-RUN] "+format, a...)
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
