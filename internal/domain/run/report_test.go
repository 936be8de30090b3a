package run

import (
	"errors"
	"strings"
	"testing"

	"github.com/rigstrap/rigstrap/internal/domain/step"
)

func TestReport_Summary(t *testing.T) {
	report := NewReport()
	report = report.add(NewOutcome(step.MustNewID("s1"), step.StatusSatisfied, nil))
	report = report.add(NewOutcome(step.MustNewID("s2"), step.StatusSatisfied, nil).WithApplied(true))
	report = report.add(NewOutcome(step.MustNewID("s3"), step.StatusSkipped, nil))
	report = report.add(NewOutcome(step.MustNewID("s4"), step.StatusFailed, errors.New("boom")))
	report = report.finish()

	s := report.Summary()
	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.Satisfied != 2 {
		t.Errorf("Satisfied = %d, want 2", s.Satisfied)
	}
	if s.Applied != 1 {
		t.Errorf("Applied = %d, want 1", s.Applied)
	}
	if s.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", s.Skipped)
	}
	if s.Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Failed)
	}
}

func TestReport_FirstFailure(t *testing.T) {
	report := NewReport()
	report = report.add(NewOutcome(step.MustNewID("ok"), step.StatusSatisfied, nil))
	report = report.add(NewOutcome(step.MustNewID("bad"), step.StatusFailed, errors.New("boom")))

	failure := report.FirstFailure()
	if failure == nil {
		t.Fatal("FirstFailure() = nil, want the failed outcome")
	}
	if failure.StepID().String() != "bad" {
		t.Errorf("FirstFailure step = %q, want %q", failure.StepID().String(), "bad")
	}

	clean := NewReport()
	if clean.FirstFailure() != nil {
		t.Error("FirstFailure() should be nil for a clean report")
	}
}

func TestReport_RunIDUnique(t *testing.T) {
	a := NewReport()
	b := NewReport()
	if a.ID() == b.ID() {
		t.Error("two reports share a run ID")
	}
	if a.ID() == "" {
		t.Error("run ID is empty")
	}
}

func TestReport_Encode(t *testing.T) {
	report := NewReport()
	report = report.add(NewOutcome(step.MustNewID("repo:sync:toolkit"), step.StatusSatisfied, nil).WithApplied(true))
	report = report.add(NewOutcome(step.MustNewID("hub:login"), step.StatusFailed, errors.New("no connectivity")))
	report.stopped = true
	report = report.finish()

	data, err := report.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out := string(data)
	for _, want := range []string{
		"run_id:",
		"stopped: true",
		"repo:sync:toolkit",
		"status: satisfied",
		"applied: true",
		"hub:login",
		"status: failed",
		"error: no connectivity",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() missing %q in:\n%s", want, out)
		}
	}
}
