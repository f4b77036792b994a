package model

import "maps"

// DefaultIgnoreConfidenceBelow is the default confidence cutoff for scoring.
const DefaultIgnoreConfidenceBelow = 0.3

// ScoringConfig controls how findings turn into scores. Penalties are decimal
// everywhere; integer values in config files decode into the same map.
type ScoringConfig struct {
	Weights               map[Dimension]float64 `json:"weights" yaml:"weights"`
	SeverityPenalty       map[Severity]float64  `json:"severityPenalty" yaml:"severityPenalty"`
	IgnoreConfidenceBelow float64               `json:"ignoreConfidenceBelow" yaml:"ignoreConfidenceBelow"`
}

// DefaultWeights returns the documented dimension weights.
func DefaultWeights() map[Dimension]float64 {
	return map[Dimension]float64{
		DimensionSecurity:        0.30,
		DimensionQuality:         0.25,
		DimensionMaintainability: 0.20,
		DimensionPerformance:     0.15,
		DimensionTestCoverage:    0.10,
	}
}

// DefaultSeverityPenalty returns the documented per-severity penalties.
func DefaultSeverityPenalty() map[Severity]float64 {
	return map[Severity]float64{
		SeverityInfo:     1,
		SeverityMinor:    3,
		SeverityMajor:    7,
		SeverityCritical: 12,
	}
}

// DefaultScoringConfig returns the configuration used when none is supplied.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:               DefaultWeights(),
		SeverityPenalty:       DefaultSeverityPenalty(),
		IgnoreConfidenceBelow: DefaultIgnoreConfidenceBelow,
	}
}

// Clone returns a deep copy of c.
func (c ScoringConfig) Clone() ScoringConfig {
	return ScoringConfig{
		Weights:               maps.Clone(c.Weights),
		SeverityPenalty:       maps.Clone(c.SeverityPenalty),
		IgnoreConfidenceBelow: c.IgnoreConfidenceBelow,
	}
}

// Scores is the outcome of scoring one run.
type Scores struct {
	Total      float64               `json:"total" yaml:"total"`
	Dimensions map[Dimension]float64 `json:"dimensions" yaml:"dimensions"`
	Weights    map[Dimension]float64 `json:"weights" yaml:"weights"`
}

// Clone returns a deep copy of s.
func (s Scores) Clone() Scores {
	return Scores{
		Total:      s.Total,
		Dimensions: maps.Clone(s.Dimensions),
		Weights:    maps.Clone(s.Weights),
	}
}
