package model

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// SegmentKind describes what a CodeSegment spans.
type SegmentKind string

const (
	// KindFunction is a function or method body.
	KindFunction SegmentKind = "FUNCTION"
	// KindClass is a class, struct or similar type body.
	KindClass SegmentKind = "CLASS"
	// KindLines is a fixed-size window of lines.
	KindLines SegmentKind = "LINES"
	// KindFile is the whole extracted content of a file.
	KindFile SegmentKind = "FILE"
)

// CodeSegment metadata keys.
const (
	MetaStrategy = "strategy"
	MetaName     = "name"
	MetaParent   = "parent"
	MetaStatus   = "status"
)

// CodeSegment is a contiguous slice of a file's changed content offered to
// providers as one unit of work. Lines are 1-based and inclusive, relative to
// the extracted content.
type CodeSegment struct {
	Path      Path              `json:"path"`
	Content   string            `json:"content"`
	StartLine int               `json:"startLine"`
	EndLine   int               `json:"endLine"`
	Language  Language          `json:"language"`
	Kind      SegmentKind       `json:"kind"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// LineCount returns the number of lines the segment covers.
func (s CodeSegment) LineCount() int {
	return s.EndLine - s.StartLine + 1
}

// Clone returns a deep copy of the segment.
func (s CodeSegment) Clone() CodeSegment {
	out := s
	out.Metadata = maps.Clone(s.Metadata)

	return out
}

// StrategyType selects how the segmenter splits content.
type StrategyType int

// Available strategy types.
const (
	StrategyFunction StrategyType = iota
	StrategyClass
	StrategyLines
	StrategyIntelligent
	StrategyFile
)

// ErrUnknownStrategy is returned for strategy names or values outside the enum.
var ErrUnknownStrategy = errors.New("unknown segmentation strategy")

var strategyNames = map[StrategyType]string{
	StrategyFunction:    "function",
	StrategyClass:       "class",
	StrategyLines:       "lines",
	StrategyIntelligent: "intelligent",
	StrategyFile:        "file",
}

func (t StrategyType) String() string {
	if name, ok := strategyNames[t]; ok {
		return name
	}

	return fmt.Sprintf("strategy(%d)", int(t))
}

// ParseStrategyType converts a case-insensitive name into a StrategyType.
func ParseStrategyType(name string) (StrategyType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for t, n := range strategyNames {
		if n == normalized {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Strategy configures a segmentation pass.
type Strategy struct {
	Type                 StrategyType
	MinSegmentLines      int
	MaxSegmentLines      int
	WindowSize           int
	WindowOverlap        int
	AllowNestedSplitting bool
}

// Default strategy options.
const (
	DefaultMinSegmentLines = 3
	DefaultMaxSegmentLines = 200
	DefaultWindowSize      = 50
	DefaultWindowOverlap   = 10
)

// DefaultStrategy returns the documented defaults for the given type.
func DefaultStrategy(t StrategyType) Strategy {
	return Strategy{
		Type:                 t,
		MinSegmentLines:      DefaultMinSegmentLines,
		MaxSegmentLines:      DefaultMaxSegmentLines,
		WindowSize:           DefaultWindowSize,
		WindowOverlap:        DefaultWindowOverlap,
		AllowNestedSplitting: true,
	}
}

// Validate checks the strategy's type and numeric options.
func (s Strategy) Validate() error {
	if _, ok := strategyNames[s.Type]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s.Type))
	}

	if s.MinSegmentLines < 1 {
		return fmt.Errorf("min segment lines must be >= 1, got %d", s.MinSegmentLines)
	}

	if s.MaxSegmentLines < s.MinSegmentLines {
		return fmt.Errorf("max segment lines %d below min %d", s.MaxSegmentLines, s.MinSegmentLines)
	}

	if s.WindowSize < 1 {
		return fmt.Errorf("window size must be >= 1, got %d", s.WindowSize)
	}

	if s.MinSegmentLines > s.WindowSize {
		return fmt.Errorf("min segment lines %d above window size %d", s.MinSegmentLines, s.WindowSize)
	}

	if s.WindowOverlap < 0 || s.WindowOverlap >= s.WindowSize {
		return fmt.Errorf("window overlap must be in [0, %d), got %d", s.WindowSize, s.WindowOverlap)
	}

	return nil
}
