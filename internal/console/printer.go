// Package console renders run progress for a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hochfrequenz/advent-runner/internal/domain"
	"github.com/hochfrequenz/advent-runner/internal/program"
	"github.com/hochfrequenz/advent-runner/internal/project"
)

type styles struct {
	dim     lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	passed  lipgloss.Style
	heading lipgloss.Style
	removed lipgloss.Style
	added   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		dim:     r.NewStyle().Foreground(lipgloss.Color("244")),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		passed:  r.NewStyle().Foreground(lipgloss.Color("42")),
		heading: r.NewStyle().Bold(true),
		removed: r.NewStyle().Foreground(lipgloss.Color("196")),
		added:   r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// Printer writes progress to out and problems to errOut. Colors are only
// emitted when the respective writer is a terminal.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	std    styles
	errs   styles
	root   string
}

var _ project.Reporter = (*Printer)(nil)

// New creates a Printer
func New(out, errOut io.Writer) *Printer {
	return &Printer{
		out:    out,
		errOut: errOut,
		std:    newStyles(lipgloss.NewRenderer(out)),
		errs:   newStyles(lipgloss.NewRenderer(errOut)),
	}
}

// WithRoot makes printed paths relative to root where possible
func (p *Printer) WithRoot(root string) *Printer {
	p.root = root
	return p
}

func (p *Printer) Running(prog program.Program) {
	fmt.Fprintln(p.out, p.std.dim.Render("Running: "+prog.String()))
}

func (p *Printer) RunningCase(prog program.Program, tc project.TestCase, inputSize int) {
	line := fmt.Sprintf("Running: %s < %s (%s)", prog, p.rel(tc.InputPath), humanize.Bytes(uint64(inputSize)))
	fmt.Fprintln(p.out, p.std.dim.Render(line))
}

func (p *Printer) Warn(msg string) {
	fmt.Fprintln(p.errOut, p.errs.warning.Render("warning: "+msg))
}

func (p *Printer) BuildFailed(step int, prog program.Program, stdout, stderr string) {
	fmt.Fprintln(p.errOut, p.errs.failure.Render(fmt.Sprintf("Build step %d failed: %s", step, prog)))
	p.section("stdout", stdout)
	p.section("stderr", stderr)
}

func (p *Printer) CasePassed(tc project.TestCase, d time.Duration) {
	fmt.Fprintf(p.out, "%s %s %s\n",
		p.std.passed.Render("ok"), tc.Name, p.std.dim.Render(d.Round(time.Millisecond).String()))
}

func (p *Printer) Mismatch(tc project.TestCase, actual, expected string) {
	fmt.Fprintln(p.errOut, p.errs.failure.Render(fmt.Sprintf("Wrong output for %s", p.rel(tc.InputPath))))
	p.block("Actual", actual)
	p.block("Expected", expected)

	fmt.Fprintln(p.errOut, p.errs.heading.Render("Diff:"))
	for _, l := range LineDiff(expected, actual) {
		switch l.Op {
		case OpDelete:
			fmt.Fprintln(p.errOut, p.errs.removed.Render("- "+l.Text))
		case OpInsert:
			fmt.Fprintln(p.errOut, p.errs.added.Render("+ "+l.Text))
		default:
			fmt.Fprintln(p.errOut, "  "+l.Text)
		}
	}
}

func (p *Printer) Removing(path string) {
	fmt.Fprintln(p.out, p.std.dim.Render("Removing file at "+p.rel(path)))
}

func (p *Printer) Summary(report *domain.RunReport) {
	passed := report.CountByStatus(domain.CasePassed)
	failed := report.CountByStatus(domain.CaseFailed) + report.CountByStatus(domain.CaseErrored)

	line := fmt.Sprintf("%s: %d passed, %d failed in %s",
		report.Label(), passed, failed, report.Duration().Round(time.Millisecond))

	if report.Status == domain.RunPassed {
		fmt.Fprintln(p.out, p.std.passed.Render(line))
		return
	}
	fmt.Fprintln(p.errOut, p.errs.failure.Render(line))
}

// Info prints a dim status line
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.std.dim.Render(msg))
}

// Error prints a failure that ended a run
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.errOut, p.errs.failure.Render("Error:"), err)
}

// section prints captured output, skipping it when blank
func (p *Printer) section(title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	p.block(title, body)
}

func (p *Printer) block(title, body string) {
	fmt.Fprintln(p.errOut, p.errs.heading.Render(title+":"))
	body = strings.TrimRight(body, "\n")
	if strings.TrimSpace(body) == "" {
		fmt.Fprintln(p.errOut, p.errs.dim.Render("(empty)"))
		return
	}
	fmt.Fprintln(p.errOut, body)
}

func (p *Printer) rel(path string) string {
	if p.root == "" {
		return path
	}
	if r, ok := strings.CutPrefix(path, strings.TrimSuffix(p.root, "/")+"/"); ok {
		return r
	}
	return path
}
