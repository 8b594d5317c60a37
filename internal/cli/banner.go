package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/mulcheck/internal/config"
	"github.com/roach88/mulcheck/internal/engine"
)

// Verdict colours.
var (
	passColor = lipgloss.Color("#8BC34A")
	failColor = lipgloss.Color("#E53935")
	dimColor  = lipgloss.Color("#6B7280")
)

// maxListedMismatches caps the mismatch list in the text report.
const maxListedMismatches = 10

// newRenderer returns a lipgloss renderer for w honouring the colour mode.
func newRenderer(w io.Writer, mode config.Color) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case config.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		if r.ColorProfile() == termenv.Ascii {
			r.SetColorProfile(termenv.ANSI256)
		}
	}
	return r
}

// writeReport renders the text form of a run report: a verdict banner
// followed by the counters, coverage and the first mismatches.
func writeReport(w io.Writer, rep *engine.Report, mode config.Color) {
	r := newRenderer(w, mode)
	p := message.NewPrinter(language.English)

	bg := passColor
	if !rep.Passed() {
		bg = failColor
	}
	banner := r.NewStyle().Bold(true).Padding(0, 1).
		Foreground(lipgloss.Color("#FFFFFF")).Background(bg).
		Render(rep.Verdict)
	dim := r.NewStyle().Foreground(dimColor)

	fmt.Fprintf(w, "%s %s\n", banner, dim.Render(rep.StopReason))
	fmt.Fprintf(w, "%-10s %s\n", "run", rep.RunID)
	fmt.Fprintf(w, "%-10s %s\n", "seed", p.Sprintf("%d  budget %s  fault %s", rep.Seed, budget(p, rep.Budget), rep.Fault))
	fmt.Fprintf(w, "%-10s %s\n", "cycles", p.Sprintf("%d (%s simulated)", rep.Cycles, rep.SimTime))
	fmt.Fprintf(w, "%-10s %s\n", "checked", p.Sprintf("%d of %d dispatched, %d outstanding, %d timeouts",
		rep.Checked, rep.Dispatched, rep.Outstanding, rep.Timeouts))

	cov := rep.Coverage
	state := "open"
	if cov.Closed {
		state = "closed"
	}
	fmt.Fprintf(w, "%-10s %d/%d goals (%d%%) %s\n", "coverage", cov.GoalsHit, cov.Goals, cov.Percent, state)
	if len(cov.Missing) > 0 {
		fmt.Fprintf(w, "%-10s %s\n", "missing", dim.Render(strings.Join(cov.Missing, " ")))
	}

	if len(rep.Mismatches) == 0 {
		return
	}
	fmt.Fprintf(w, "%-10s %s\n", "failures", p.Sprintf("%d", len(rep.Mismatches)))
	for i, m := range rep.Mismatches {
		if i == maxListedMismatches {
			fmt.Fprintf(w, "  ... %s more\n", p.Sprintf("%d", len(rep.Mismatches)-maxListedMismatches))
			break
		}
		fmt.Fprintf(w, "  [%d] cycle %d: %s\n", i+1, m.Cycle, m.Summary())
	}
}

func budget(p *message.Printer, n int64) string {
	if n == 0 {
		return "unlimited"
	}
	return p.Sprintf("%d", n)
}
