package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "prscore.dev/pkg/prscore/internal/model"
)

func finding(severity m.Severity, dimension m.Dimension, confidence float64) m.Finding {
	return m.Finding{
		Path:       "main.go",
		StartLine:  1,
		EndLine:    1,
		Severity:   severity,
		Dimension:  dimension,
		Title:      "issue",
		Confidence: confidence,
	}
}

func TestScore_ScenarioA(t *testing.T) {
	findings := []m.Finding{finding(m.SeverityMajor, m.DimensionSecurity, 0.9)}

	scores := NewScoringEngine().Score(findings, 100, nil)

	assert.InDelta(t, 61.595, scores.Dimensions[m.DimensionSecurity], 0.01)

	for _, dimension := range m.Dimensions()[1:] {
		assert.Equal(t, 100.0, scores.Dimensions[dimension], string(dimension))
	}

	assert.InDelta(t, 88.479, scores.Total, 0.01)
	assert.Equal(t, m.DefaultWeights(), scores.Weights)
}

func TestScore_EmptyFindingsArePerfect(t *testing.T) {
	scores := NewScoringEngine().Score(nil, 0, nil)

	assert.Equal(t, 100.0, scores.Total)

	for _, dimension := range m.Dimensions() {
		assert.Equal(t, 100.0, scores.Dimensions[dimension])
	}
}

func TestScore_LowConfidenceIgnored(t *testing.T) {
	engine := NewScoringEngine()

	baseline := engine.Score(nil, 500, nil)
	withNoise := engine.Score([]m.Finding{
		finding(m.SeverityCritical, m.DimensionSecurity, 0.29),
		finding(m.SeverityCritical, m.DimensionQuality, 0.0),
	}, 500, nil)

	assert.Equal(t, baseline, withNoise)
}

func TestScore_CutoffIsInclusive(t *testing.T) {
	cfg := m.DefaultScoringConfig()
	cfg.IgnoreConfidenceBelow = 0.5

	scores := NewScoringEngine().Score([]m.Finding{finding(m.SeverityMinor, m.DimensionQuality, 0.5)}, 10, &cfg)

	assert.Less(t, scores.Dimensions[m.DimensionQuality], 100.0)
}

func TestScore_DimensionScoresStayInRange(t *testing.T) {
	var findings []m.Finding
	for range 500 {
		findings = append(findings, finding(m.SeverityCritical, m.DimensionPerformance, 1))
	}

	scores := NewScoringEngine().Score(findings, 1_000_000, nil)

	for _, dimension := range m.Dimensions() {
		assert.GreaterOrEqual(t, scores.Dimensions[dimension], 0.0)
		assert.LessOrEqual(t, scores.Dimensions[dimension], 100.0)
	}

	assert.InDelta(t, 0.0, scores.Dimensions[m.DimensionPerformance], 1e-9)
}

func TestScore_ZeroWeightsGivePerfectTotal(t *testing.T) {
	cfg := m.DefaultScoringConfig()
	for dimension := range cfg.Weights {
		cfg.Weights[dimension] = 0
	}

	scores := NewScoringEngine().Score([]m.Finding{finding(m.SeverityCritical, m.DimensionSecurity, 1)}, 100, &cfg)

	assert.Equal(t, 100.0, scores.Total)
	assert.Less(t, scores.Dimensions[m.DimensionSecurity], 100.0)
}

func TestScore_AbsentWeightsGivePerfectTotal(t *testing.T) {
	cfg := m.ScoringConfig{IgnoreConfidenceBelow: 0.3}

	scores := NewScoringEngine().Score([]m.Finding{finding(m.SeverityMajor, m.DimensionQuality, 1)}, 100, &cfg)

	assert.Equal(t, 100.0, scores.Total)
}

func TestScore_TotalIsWeightNormalizedAverage(t *testing.T) {
	cfg := m.DefaultScoringConfig()
	cfg.Weights = map[m.Dimension]float64{
		m.DimensionSecurity: 2,
		m.DimensionQuality:  1,
	}

	findings := []m.Finding{
		finding(m.SeverityCritical, m.DimensionSecurity, 1),
		finding(m.SeverityMinor, m.DimensionQuality, 0.6),
	}

	scores := NewScoringEngine().Score(findings, 10, &cfg)

	want := (2*scores.Dimensions[m.DimensionSecurity] + scores.Dimensions[m.DimensionQuality]) / 3
	assert.InDelta(t, want, scores.Total, 1e-9)
	assert.InDelta(t, 100*math.Exp(-12*math.Log(11)/6/10), scores.Dimensions[m.DimensionSecurity], 1e-9)
}

func TestScore_Idempotent(t *testing.T) {
	findings := []m.Finding{
		finding(m.SeverityMajor, m.DimensionSecurity, 0.9),
		finding(m.SeverityMinor, m.DimensionQuality, 0.4),
		finding(m.SeverityInfo, m.DimensionMaintainability, 0.7),
		finding(m.SeverityCritical, m.DimensionTestCoverage, 0.35),
	}
	cfg := m.DefaultScoringConfig()

	engine := NewScoringEngine()
	first := engine.Score(findings, 321, &cfg)
	second := engine.Score(findings, 321, &cfg)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("scores differ between calls (-first +second):\n%s", diff)
	}
}

func TestScore_InvalidConfigEntriesFallBackToDefaults(t *testing.T) {
	broken := m.ScoringConfig{
		Weights: map[m.Dimension]float64{
			m.DimensionSecurity:        math.NaN(),
			m.DimensionQuality:         -1,
			m.DimensionMaintainability: 0.20,
			m.DimensionPerformance:     0.15,
			m.DimensionTestCoverage:    0.10,
		},
		SeverityPenalty: map[m.Severity]float64{
			m.SeverityMajor: math.Inf(1),
		},
		IgnoreConfidenceBelow: 7,
	}

	findings := []m.Finding{finding(m.SeverityMajor, m.DimensionSecurity, 0.9)}

	got := NewScoringEngine().Score(findings, 100, &broken)
	want := NewScoringEngine().Score(findings, 100, nil)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected scores (-want +got):\n%s", diff)
	}
}

func TestScore_DecimalPenalties(t *testing.T) {
	cfg := m.DefaultScoringConfig()
	cfg.SeverityPenalty[m.SeverityMajor] = 7.5

	scores := NewScoringEngine().Score([]m.Finding{finding(m.SeverityMajor, m.DimensionSecurity, 1)}, 100, &cfg)

	want := 100 * math.Exp(-7.5*math.Log1p(100)/6/10)
	require.InDelta(t, want, scores.Dimensions[m.DimensionSecurity], 1e-12)
}
