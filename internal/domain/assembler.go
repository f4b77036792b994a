package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	m "prscore.dev/pkg/prscore/internal/model"
)

// AssemblyInput gathers everything a RunResult is built from.
type AssemblyInput struct {
	Repository  string
	PullRequest string
	Diff        m.DiffStats
	Segments    int
	Latency     time.Duration
	Cost        *float64
	Outcomes    []ProviderOutcome
	Aggregation Aggregation
	Scores      m.Scores
}

// RunAssembler builds immutable run results.
type RunAssembler interface {
	Assemble(input AssemblyInput) m.RunResult
	// Rescore derives a new run from a stored one with replaced scores.
	Rescore(run m.RunResult, scores m.Scores) m.RunResult
}

type runAssembler struct {
	newID func() string
	now   func() time.Time
}

// AssemblerOption customises a RunAssembler.
type AssemblerOption func(*runAssembler)

// WithIDGenerator overrides the run id source.
func WithIDGenerator(newID func() string) AssemblerOption {
	return func(a *runAssembler) {
		a.newID = newID
	}
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *runAssembler) {
		a.now = now
	}
}

// NewRunAssembler creates a RunAssembler stamping UUID run ids and UTC times.
func NewRunAssembler(opts ...AssemblerOption) RunAssembler {
	a := &runAssembler{
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assemble copies every slice and map of input, so the result shares no
// memory with the pipeline that produced it.
func (a *runAssembler) Assemble(input AssemblyInput) m.RunResult {
	findings := make([]m.Finding, 0, len(input.Aggregation.Findings))
	for _, finding := range input.Aggregation.Findings {
		findings = append(findings, finding.Clone())
	}

	tasks := []m.Task{}

	for _, outcome := range input.Outcomes {
		if outcome.Status != OutcomeSkipped {
			tasks = append(tasks, outcome.Task)
		}
	}

	var cost *float64
	if input.Cost != nil {
		value := *input.Cost
		cost = &value
	}

	providers := slices.Clone(input.Aggregation.Providers)
	if providers == nil {
		providers = []string{}
	}

	warnings := slices.Clone(input.Aggregation.Warnings)
	if warnings == nil {
		warnings = []m.ProviderWarning{}
	}

	return m.RunResult{
		RunID:       a.newID(),
		Repository:  input.Repository,
		PullRequest: input.PullRequest,
		CreatedAt:   a.now(),
		Providers:   providers,
		Stats: m.RunStats{
			FilesChanged: input.Diff.FilesChanged,
			LinesAdded:   input.Diff.LinesAdded,
			LinesDeleted: input.Diff.LinesDeleted,
			LinesChanged: input.Diff.LinesChanged(),
			Segments:     input.Segments,
			Latency:      input.Latency,
			Cost:         cost,
			Warnings:     warnings,
			Tasks:        tasks,
		},
		Findings:  findings,
		Scores:    input.Scores.Clone(),
		Artifacts: []m.Artifact{},
	}
}

// Rescore keeps the findings and statistics of run, stamps a fresh id and
// creation time and attaches scores. Artifacts belong to the original run
// and are not carried over.
func (a *runAssembler) Rescore(run m.RunResult, scores m.Scores) m.RunResult {
	findings := make([]m.Finding, 0, len(run.Findings))
	for _, finding := range run.Findings {
		findings = append(findings, finding.Clone())
	}

	out := run
	out.RunID = a.newID()
	out.CreatedAt = a.now()
	out.Providers = append([]string{}, run.Providers...)
	out.Findings = findings
	out.Scores = scores.Clone()
	out.Artifacts = []m.Artifact{}
	out.Stats.Warnings = append([]m.ProviderWarning{}, run.Stats.Warnings...)
	out.Stats.Tasks = append([]m.Task{}, run.Stats.Tasks...)

	if run.Stats.Cost != nil {
		cost := *run.Stats.Cost
		out.Stats.Cost = &cost
	}

	return out
}
