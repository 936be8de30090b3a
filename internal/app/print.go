package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rigstrap/rigstrap/internal/domain/run"
	"github.com/rigstrap/rigstrap/internal/domain/step"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// PrintPlan renders the plan entries.
func (r *Rigstrap) PrintPlan(entries []PlanEntry) {
	fmt.Fprintln(r.out, titleStyle.Render("Plan"))

	changes := 0
	for _, e := range entries {
		switch e.Status {
		case step.StatusSatisfied:
			fmt.Fprintf(r.out, "  %s %s\n", successStyle.Render("ok"), e.StepID.String())
		case step.StatusSkipped:
			fmt.Fprintf(r.out, "  %s %s\n", mutedStyle.Render("--"), e.StepID.String())
		case step.StatusNeedsApply:
			changes++
			fmt.Fprintf(r.out, "  %s %s  %s\n",
				warnStyle.Render("~>"), e.StepID.String(), e.Diff.Summary())
		default:
			fmt.Fprintf(r.out, "  %s %s\n", errorStyle.Render("??"), e.StepID.String())
		}
	}

	if changes == 0 {
		fmt.Fprintln(r.out, mutedStyle.Render("Nothing to do."))
	} else {
		fmt.Fprintf(r.out, "%d step(s) would apply changes.\n", changes)
	}
}

// PrintReport renders the run outcomes and the summary line.
func (r *Rigstrap) PrintReport(report run.Report) {
	fmt.Fprintln(r.out, titleStyle.Render("Results"))

	for _, o := range report.Outcomes() {
		switch {
		case o.Failed():
			fmt.Fprintf(r.out, "  %s %s: %v\n",
				errorStyle.Render("fail"), o.StepID().String(), o.Error())
		case o.Skipped():
			fmt.Fprintf(r.out, "  %s %s\n",
				mutedStyle.Render("skip"), o.StepID().String())
		case o.Applied():
			fmt.Fprintf(r.out, "  %s %s (%s)\n",
				successStyle.Render("done"), o.StepID().String(), o.Duration().Round(time.Millisecond))
		default:
			fmt.Fprintf(r.out, "  %s %s\n",
				successStyle.Render("ok"), o.StepID().String())
		}
	}

	s := report.Summary()
	fmt.Fprintf(r.out, "%d total: %d satisfied (%d applied), %d skipped, %d failed\n",
		s.Total, s.Satisfied, s.Applied, s.Skipped, s.Failed)

	if failure := report.FirstFailure(); failure != nil {
		var stepErr *step.Error
		if errors.As(failure.Error(), &stepErr) {
			fmt.Fprintln(r.out, errorStyle.Render(stepErr.Format()))
		}
		if report.Stopped() {
			fmt.Fprintln(r.out, mutedStyle.Render("Run stopped; remaining steps were not attempted."))
		}
	}
}
