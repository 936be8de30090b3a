package run

import (
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rigstrap/rigstrap/internal/domain/step"
)

// Report is the ordered record of a run's step outcomes.
type Report struct {
	id        string
	startedAt time.Time
	duration  time.Duration
	outcomes  []Outcome
	stopped   bool
}

// NewReport creates an empty Report with a fresh run ID.
func NewReport() Report {
	return Report{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		outcomes:  make([]Outcome, 0),
	}
}

func (r Report) add(outcome Outcome) Report {
	r.outcomes = append(r.outcomes, outcome)
	return r
}

func (r Report) finish() Report {
	r.duration = time.Since(r.startedAt)
	return r
}

// ID returns the run identifier.
func (r Report) ID() string {
	return r.id
}

// Outcomes returns the ordered outcomes in execution order.
func (r Report) Outcomes() []Outcome {
	return r.outcomes
}

// Duration returns the total run duration.
func (r Report) Duration() time.Duration {
	return r.duration
}

// Stopped returns true if the run ended before all steps produced an outcome.
func (r Report) Stopped() bool {
	return r.stopped
}

// Failed returns true if any outcome failed.
func (r Report) Failed() bool {
	for _, o := range r.outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

// FirstFailure returns the first failed outcome, or nil when none failed.
func (r Report) FirstFailure() *Outcome {
	for i := range r.outcomes {
		if r.outcomes[i].Failed() {
			return &r.outcomes[i]
		}
	}
	return nil
}

// Summary aggregates outcome counts by status.
type Summary struct {
	Total     int
	Satisfied int
	Applied   int
	Skipped   int
	Failed    int
}

// Summary returns aggregate statistics for the run.
func (r Report) Summary() Summary {
	s := Summary{Total: len(r.outcomes)}
	for _, o := range r.outcomes {
		switch o.Status() {
		case step.StatusSatisfied:
			s.Satisfied++
			if o.Applied() {
				s.Applied++
			}
		case step.StatusSkipped:
			s.Skipped++
		case step.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// reportDoc is the serialized form of a Report.
type reportDoc struct {
	RunID    string       `yaml:"run_id"`
	Started  time.Time    `yaml:"started"`
	Duration string       `yaml:"duration"`
	Stopped  bool         `yaml:"stopped"`
	Steps    []outcomeDoc `yaml:"steps"`
}

type outcomeDoc struct {
	Step     string `yaml:"step"`
	Status   string `yaml:"status"`
	Applied  bool   `yaml:"applied,omitempty"`
	Duration string `yaml:"duration"`
	Error    string `yaml:"error,omitempty"`
}

// MarshalYAML serializes the report for the --report artifact.
func (r Report) MarshalYAML() (interface{}, error) {
	doc := reportDoc{
		RunID:    r.id,
		Started:  r.startedAt,
		Duration: r.duration.String(),
		Stopped:  r.stopped,
		Steps:    make([]outcomeDoc, 0, len(r.outcomes)),
	}
	for _, o := range r.outcomes {
		entry := outcomeDoc{
			Step:     o.StepID().String(),
			Status:   o.Status().String(),
			Applied:  o.Applied(),
			Duration: o.Duration().String(),
		}
		if o.Error() != nil {
			entry.Error = o.Error().Error()
		}
		doc.Steps = append(doc.Steps, entry)
	}
	return doc, nil
}

// Encode writes the report as YAML.
func (r Report) Encode() ([]byte, error) {
	return yaml.Marshal(r)
}
