package model

import (
	"crypto/sha256"
	"fmt"
)

// Severity is the ordinal seriousness of a finding.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// Severities returns all severities from least to most serious.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical}
}

// Valid reports whether s belongs to the closed severity set.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Rank returns a numeric rank (higher = more severe), 0 for unknown values.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityMajor:
		return 3
	case SeverityMinor:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Dimension is a fixed category of code quality.
type Dimension string

const (
	DimensionSecurity        Dimension = "SECURITY"
	DimensionQuality         Dimension = "QUALITY"
	DimensionMaintainability Dimension = "MAINTAINABILITY"
	DimensionPerformance     Dimension = "PERFORMANCE"
	DimensionTestCoverage    Dimension = "TEST_COVERAGE"
)

// Dimensions returns every dimension in a fixed order. Scoring iterates in
// this order so floating point sums are reproducible.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionSecurity,
		DimensionQuality,
		DimensionMaintainability,
		DimensionPerformance,
		DimensionTestCoverage,
	}
}

// Valid reports whether d belongs to the closed dimension set.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionSecurity, DimensionQuality, DimensionMaintainability,
		DimensionPerformance, DimensionTestCoverage:
		return true
	}

	return false
}

// Finding is a single reported issue.
type Finding struct {
	ID         string    `json:"id" yaml:"id"`
	Path       Path      `json:"path" yaml:"path"`
	StartLine  int       `json:"startLine" yaml:"startLine"`
	EndLine    int       `json:"endLine" yaml:"endLine"`
	Severity   Severity  `json:"severity" yaml:"severity"`
	Dimension  Dimension `json:"dimension" yaml:"dimension"`
	Title      string    `json:"title" yaml:"title"`
	Evidence   string    `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Patch      string    `json:"patch,omitempty" yaml:"patch,omitempty"`
	Sources    []string  `json:"sources" yaml:"sources"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
}

// Clone returns a copy of f that shares no slices with it.
func (f Finding) Clone() Finding {
	out := f
	if f.Sources != nil {
		out.Sources = append([]string(nil), f.Sources...)
	}

	return out
}

// FindingID derives a stable identifier from the first source, dimension,
// path, title and start line, so two providers flagging the same line keep
// distinct ids.
func FindingID(f Finding) string {
	source := ""
	if len(f.Sources) > 0 {
		source = f.Sources[0]
	}

	data := fmt.Sprintf("%s:%s:%s:%s:%d", source, f.Dimension, f.Path, f.Title, f.StartLine)
	h := sha256.Sum256([]byte(data))

	return fmt.Sprintf("%x", h[:8])
}
