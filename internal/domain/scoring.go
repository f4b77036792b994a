package domain

import (
	"log/slog"
	"math"

	m "prscore.dev/pkg/prscore/internal/model"
)

const (
	perfectScore = 100.0
	// sizeDivisor normalises ln(1 + linesChanged); about 400 changed lines
	// give a factor of 1.
	sizeDivisor = 6.0
	// decay is the penalty at which a dimension score drops to 100/e.
	decay = 10.0
)

// ScoringEngine turns findings into per-dimension and total scores.
type ScoringEngine interface {
	Score(findings []m.Finding, linesChanged int, config *m.ScoringConfig) m.Scores
}

type scoringEngine struct{}

// NewScoringEngine creates a ScoringEngine.
func NewScoringEngine() ScoringEngine {
	return &scoringEngine{}
}

// Score is pure: the same findings, size and config always produce
// bit-identical scores. A nil config means the documented defaults.
func (s *scoringEngine) Score(findings []m.Finding, linesChanged int, config *m.ScoringConfig) m.Scores {
	cfg := effectiveConfig(config)
	sizeFactor := math.Log1p(float64(max(linesChanged, 0))) / sizeDivisor

	penalties := make(map[m.Dimension]float64, len(m.Dimensions()))

	for _, finding := range findings {
		if finding.Confidence < cfg.IgnoreConfidenceBelow {
			continue
		}

		penalty, ok := cfg.SeverityPenalty[finding.Severity]
		if !ok || !finding.Dimension.Valid() {
			continue
		}

		penalties[finding.Dimension] += penalty * finding.Confidence * sizeFactor
	}

	scores := m.Scores{
		Dimensions: make(map[m.Dimension]float64, len(m.Dimensions())),
		Weights:    make(map[m.Dimension]float64, len(m.Dimensions())),
	}

	var weighted, weightSum float64

	for _, dimension := range m.Dimensions() {
		score := perfectScore * math.Exp(-penalties[dimension]/decay)
		score = min(max(score, 0), perfectScore)

		weight := cfg.Weights[dimension]

		scores.Dimensions[dimension] = score
		scores.Weights[dimension] = weight

		weighted += weight * score
		weightSum += weight
	}

	scores.Total = perfectScore
	if weightSum > 0 {
		scores.Total = weighted / weightSum
	}

	return scores
}

// effectiveConfig replaces missing or invalid entries with their documented
// defaults, logging each replacement.
func effectiveConfig(config *m.ScoringConfig) m.ScoringConfig {
	if config == nil {
		return m.DefaultScoringConfig()
	}

	cfg := m.ScoringConfig{
		Weights:               map[m.Dimension]float64{},
		SeverityPenalty:       map[m.Severity]float64{},
		IgnoreConfidenceBelow: config.IgnoreConfidenceBelow,
	}

	defaultWeights := m.DefaultWeights()

	for _, dimension := range m.Dimensions() {
		weight, ok := config.Weights[dimension]
		if !ok {
			continue
		}

		if !validAmount(weight) {
			slog.Warn("Invalid scoring weight, using default", "dimension", dimension, "weight", weight)

			weight = defaultWeights[dimension]
		}

		cfg.Weights[dimension] = weight
	}

	defaultPenalties := m.DefaultSeverityPenalty()

	for _, severity := range m.Severities() {
		penalty, ok := config.SeverityPenalty[severity]
		if !ok {
			cfg.SeverityPenalty[severity] = defaultPenalties[severity]
			continue
		}

		if !validAmount(penalty) {
			slog.Warn("Invalid severity penalty, using default", "severity", severity, "penalty", penalty)

			penalty = defaultPenalties[severity]
		}

		cfg.SeverityPenalty[severity] = penalty
	}

	if math.IsNaN(cfg.IgnoreConfidenceBelow) || cfg.IgnoreConfidenceBelow < 0 || cfg.IgnoreConfidenceBelow > 1 {
		slog.Warn("Invalid confidence cutoff, using default", "ignoreConfidenceBelow", cfg.IgnoreConfidenceBelow)

		cfg.IgnoreConfidenceBelow = m.DefaultIgnoreConfidenceBelow
	}

	return cfg
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
