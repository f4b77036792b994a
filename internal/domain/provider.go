package domain

import (
	"context"
	"time"

	m "prscore.dev/pkg/prscore/internal/model"
)

// Provider is an analysis or review backend. Implementations may fail, panic
// or hang; the runner isolates each call.
type Provider interface {
	ID() string
	Name() string
	Version() string
	Enabled() bool
	Supports(path m.Path, language m.Language) bool
	Analyze(ctx context.Context, req AnalysisRequest) ([]m.Finding, error)
}

// TimeoutProvider is implemented by providers configured with their own
// deadline, overriding the runner's default provider timeout.
type TimeoutProvider interface {
	Timeout() time.Duration
}

// AnalysisRequest is the private input handed to one provider. Hunks and
// segments are already filtered to the files the provider supports.
type AnalysisRequest struct {
	Repository  string
	PullRequest string
	Hunks       []m.DiffHunk
	Segments    []m.CodeSegment
	Config      m.ReviewConfig
}

func providerIDs(providers []Provider) []string {
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID())
	}

	return ids
}
