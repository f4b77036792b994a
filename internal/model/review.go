package model

import (
	"slices"
	"time"
)

// ProviderSelection enables and parameterises one provider for a repository.
type ProviderSelection struct {
	ID      string        `json:"id" yaml:"id"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Command string        `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string      `json:"args,omitempty" yaml:"args,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// SegmentationConfig selects the segmentation strategy for a repository.
// Zero numeric values mean "use the strategy default"; WindowOverlap is a
// pointer so an explicit 0 disables overlap.
type SegmentationConfig struct {
	Strategy             string `json:"strategy" yaml:"strategy"`
	MinSegmentLines      int    `json:"minSegmentLines,omitempty" yaml:"minSegmentLines,omitempty"`
	MaxSegmentLines      int    `json:"maxSegmentLines,omitempty" yaml:"maxSegmentLines,omitempty"`
	WindowSize           int    `json:"windowSize,omitempty" yaml:"windowSize,omitempty"`
	WindowOverlap        *int   `json:"windowOverlap,omitempty" yaml:"windowOverlap,omitempty"`
	AllowNestedSplitting *bool  `json:"allowNestedSplitting,omitempty" yaml:"allowNestedSplitting,omitempty"`
}

// ReviewConfig is the per-repository review configuration.
type ReviewConfig struct {
	Scoring      ScoringConfig       `json:"scoring" yaml:"scoring"`
	Providers    []ProviderSelection `json:"providers" yaml:"providers"`
	Segmentation SegmentationConfig  `json:"segmentation" yaml:"segmentation"`
}

// DefaultReviewConfig is used when a repository has no usable config file.
func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		Scoring: DefaultScoringConfig(),
		Providers: []ProviderSelection{
			{ID: "rules", Enabled: true},
			{ID: "changesize", Enabled: true},
		},
		Segmentation: SegmentationConfig{Strategy: StrategyIntelligent.String()},
	}
}

// Clone returns a deep copy of c.
func (c ReviewConfig) Clone() ReviewConfig {
	out := ReviewConfig{
		Scoring:      c.Scoring.Clone(),
		Segmentation: c.Segmentation,
	}

	if c.Segmentation.AllowNestedSplitting != nil {
		nested := *c.Segmentation.AllowNestedSplitting
		out.Segmentation.AllowNestedSplitting = &nested
	}

	if c.Segmentation.WindowOverlap != nil {
		overlap := *c.Segmentation.WindowOverlap
		out.Segmentation.WindowOverlap = &overlap
	}

	if c.Providers != nil {
		out.Providers = make([]ProviderSelection, len(c.Providers))
		for i, p := range c.Providers {
			p.Args = slices.Clone(p.Args)
			out.Providers[i] = p
		}
	}

	return out
}

// Resolve converts the segmentation section into a Strategy, applying the
// defaults of the selected type to unset options.
func (c SegmentationConfig) Resolve() (Strategy, error) {
	name := c.Strategy
	if name == "" {
		name = StrategyIntelligent.String()
	}

	t, err := ParseStrategyType(name)
	if err != nil {
		return Strategy{}, err
	}

	strategy := DefaultStrategy(t)
	if c.MinSegmentLines > 0 {
		strategy.MinSegmentLines = c.MinSegmentLines
	}

	if c.MaxSegmentLines > 0 {
		strategy.MaxSegmentLines = c.MaxSegmentLines
	}

	if c.WindowSize > 0 {
		strategy.WindowSize = c.WindowSize
	}

	if c.WindowOverlap != nil {
		strategy.WindowOverlap = *c.WindowOverlap
	}

	if c.AllowNestedSplitting != nil {
		strategy.AllowNestedSplitting = *c.AllowNestedSplitting
	}

	return strategy, strategy.Validate()
}
