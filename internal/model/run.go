package model

import "time"

// WarningKind classifies a provider-level warning attached to a run.
type WarningKind string

const (
	// WarningProviderFailed means the provider returned an error or panicked.
	WarningProviderFailed WarningKind = "provider_failed"
	// WarningProviderTimeout means the provider missed its deadline.
	WarningProviderTimeout WarningKind = "provider_timeout"
	// WarningProviderCancelled means the run was cancelled before the provider finished.
	WarningProviderCancelled WarningKind = "provider_cancelled"
	// WarningFindingRejected means a finding fell outside the closed enumerations.
	WarningFindingRejected WarningKind = "finding_rejected"
)

// ProviderWarning is a non-fatal problem surfaced alongside the run.
type ProviderWarning struct {
	Provider string      `json:"provider" yaml:"provider"`
	Kind     WarningKind `json:"kind" yaml:"kind"`
	Message  string      `json:"message" yaml:"message"`
}

// RunStats carries the diff-derived statistics of a run.
type RunStats struct {
	FilesChanged int               `json:"filesChanged" yaml:"filesChanged"`
	LinesAdded   int               `json:"linesAdded" yaml:"linesAdded"`
	LinesDeleted int               `json:"linesDeleted" yaml:"linesDeleted"`
	LinesChanged int               `json:"linesChanged" yaml:"linesChanged"`
	Segments     int               `json:"segments" yaml:"segments"`
	Latency      time.Duration     `json:"latency" yaml:"latency"`
	Cost         *float64          `json:"cost,omitempty" yaml:"cost,omitempty"`
	Warnings     []ProviderWarning `json:"warnings" yaml:"warnings"`
	Tasks        []Task            `json:"tasks" yaml:"tasks"`
}

// Artifact references a rendering produced from a run after assembly.
type Artifact struct {
	Kind string `json:"kind" yaml:"kind"`
	Path Path   `json:"path" yaml:"path"`
}

// RunResult is one complete evaluation of a pull request's diff. It is built
// once and treated as a value afterwards.
type RunResult struct {
	RunID       string     `json:"runId" yaml:"runId"`
	Repository  string     `json:"repository" yaml:"repository"`
	PullRequest string     `json:"pullRequest" yaml:"pullRequest"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	Providers   []string   `json:"providers" yaml:"providers"`
	Stats       RunStats   `json:"stats" yaml:"stats"`
	Findings    []Finding  `json:"findings" yaml:"findings"`
	Scores      Scores     `json:"scores" yaml:"scores"`
	Artifacts   []Artifact `json:"artifacts" yaml:"artifacts"`
}
