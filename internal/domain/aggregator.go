package domain

import (
	"fmt"
	"log/slog"
	"math"

	m "prscore.dev/pkg/prscore/internal/model"
)

// Aggregation is the merged view of all provider outcomes.
type Aggregation struct {
	Findings  []m.Finding
	Warnings  []m.ProviderWarning
	Providers []string
}

// Aggregator merges provider outcomes into one deterministic finding list.
type Aggregator interface {
	Aggregate(outcomes []ProviderOutcome) Aggregation
}

type aggregator struct{}

// NewAggregator creates an Aggregator.
func NewAggregator() Aggregator {
	return &aggregator{}
}

// Aggregate concatenates findings in outcome order. Findings outside the
// closed severity and dimension sets are rejected one by one; overlapping
// findings from different providers are all kept.
func (a *aggregator) Aggregate(outcomes []ProviderOutcome) Aggregation {
	result := Aggregation{
		Findings:  []m.Finding{},
		Warnings:  []m.ProviderWarning{},
		Providers: []string{},
	}

	for _, outcome := range outcomes {
		switch outcome.Status {
		case OutcomeSkipped:
			continue
		case OutcomeFailed:
			result.Warnings = append(result.Warnings, providerWarning(outcome, m.WarningProviderFailed))
			continue
		case OutcomeTimeout:
			result.Warnings = append(result.Warnings, providerWarning(outcome, m.WarningProviderTimeout))
			continue
		case OutcomeCancelled:
			result.Warnings = append(result.Warnings, providerWarning(outcome, m.WarningProviderCancelled))
			continue
		case OutcomeCompleted:
		}

		result.Providers = append(result.Providers, outcome.Provider)

		for _, finding := range outcome.Findings {
			normalized, err := normalizeFinding(outcome.Provider, finding)
			if err != nil {
				slog.Warn("Rejected finding", "provider", outcome.Provider, "title", finding.Title, "error", err)

				result.Warnings = append(result.Warnings, m.ProviderWarning{
					Provider: outcome.Provider,
					Kind:     m.WarningFindingRejected,
					Message:  err.Error(),
				})

				continue
			}

			result.Findings = append(result.Findings, normalized)
		}
	}

	return result
}

func providerWarning(outcome ProviderOutcome, kind m.WarningKind) m.ProviderWarning {
	message := string(outcome.Status)
	if outcome.Err != nil {
		message = outcome.Err.Error()
	}

	return m.ProviderWarning{
		Provider: outcome.Provider,
		Kind:     kind,
		Message:  message,
	}
}

func normalizeFinding(provider string, finding m.Finding) (m.Finding, error) {
	if !finding.Severity.Valid() {
		return m.Finding{}, fmt.Errorf("unknown severity %q", finding.Severity)
	}

	if !finding.Dimension.Valid() {
		return m.Finding{}, fmt.Errorf("unknown dimension %q", finding.Dimension)
	}

	if math.IsNaN(finding.Confidence) || math.IsInf(finding.Confidence, 0) {
		return m.Finding{}, fmt.Errorf("confidence %v is not finite", finding.Confidence)
	}

	out := finding.Clone()
	out.Confidence = min(max(out.Confidence, 0), 1)

	if out.StartLine < 1 {
		out.StartLine = 1
	}

	if out.EndLine < out.StartLine {
		out.EndLine = out.StartLine
	}

	if len(out.Sources) == 0 {
		out.Sources = []string{provider}
	}

	if out.ID == "" {
		out.ID = m.FindingID(out)
	}

	return out, nil
}
