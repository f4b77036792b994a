// Package domain provides the core review pipeline: segmentation, concurrent
// provider analysis, aggregation, scoring and run assembly.
package domain

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	m "prscore.dev/pkg/prscore/internal/model"
)

// Segmenter splits diff hunks into code segments.
type Segmenter interface {
	Split(hunks []m.DiffHunk, strategy m.Strategy) ([]m.CodeSegment, error)
}

type segmenter struct{}

// NewSegmenter creates a Segmenter.
func NewSegmenter() Segmenter {
	return &segmenter{}
}

// Split segments every non-deleted hunk. A file whose patch has no content is
// logged and skipped; only an invalid strategy is reported as an error.
func (s *segmenter) Split(hunks []m.DiffHunk, strategy m.Strategy) ([]m.CodeSegment, error) {
	if err := strategy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}

	segments := []m.CodeSegment{}

	for _, hunk := range hunks {
		if hunk.Status == m.StatusDeleted {
			continue
		}

		content := ExtractContent(hunk.Patch)
		if strings.TrimSpace(content) == "" {
			slog.Warn("Skipping file segmentation", "path", hunk.Path, "error", ErrEmptyPatch)
			continue
		}

		fileSegments := splitFile(hunk.Path, content, strategy)
		for i := range fileSegments {
			fileSegments[i].Metadata[m.MetaStrategy] = strategy.Type.String()
			fileSegments[i].Metadata[m.MetaStatus] = string(hunk.Status)
		}

		slog.Debug("Segmented file", "path", hunk.Path, "strategy", strategy.Type, "segments", len(fileSegments))

		segments = append(segments, fileSegments...)
	}

	return segments, nil
}

// ExtractContent returns the post-change text of a unified diff patch:
// headers and removed lines are dropped, added and context lines kept
// without their marker.
func ExtractContent(patch string) string {
	raw := strings.Split(strings.TrimRight(patch, "\n"), "\n")
	lines := make([]string, 0, len(raw))
	inHunk := false

	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case line == "+++" || line == "---" ||
			strings.HasPrefix(line, "+++ ") || strings.HasPrefix(line, "--- "):
		case strings.HasPrefix(line, `\`):
		case strings.HasPrefix(line, "+"):
			lines = append(lines, line[1:])
		case strings.HasPrefix(line, "-"):
		case strings.HasPrefix(line, " "):
			lines = append(lines, line[1:])
		case line == "" && inHunk:
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n")
}

// fileSplitter holds the per-file state of one segmentation pass.
type fileSplitter struct {
	path     m.Path
	lines    []string
	language m.Language
	syntax   languageSyntax
	known    bool
	strategy m.Strategy
}

func splitFile(path m.Path, content string, strategy m.Strategy) []m.CodeSegment {
	language := m.DetectLanguage(path)
	syntax, known := syntaxFor(language)

	fs := &fileSplitter{
		path:     path,
		lines:    strings.Split(content, "\n"),
		language: language,
		syntax:   syntax,
		known:    known,
		strategy: strategy,
	}

	last := len(fs.lines) - 1

	switch strategy.Type {
	case m.StrategyFile:
		return []m.CodeSegment{fs.segment(0, last, m.KindFile)}
	case m.StrategyLines:
		return fs.windows(0, last)
	case m.StrategyClass:
		return fs.tiered(m.KindClass, m.KindFunction)
	case m.StrategyFunction:
		return fs.tiered(m.KindFunction)
	case m.StrategyIntelligent:
		return fs.intelligent()
	}

	return nil
}

// tiered tries each declaration kind in order and falls back to a line
// window split when none produces segments.
func (fs *fileSplitter) tiered(kinds ...m.SegmentKind) []m.CodeSegment {
	last := len(fs.lines) - 1

	for _, kind := range kinds {
		if segments := fs.declarations(kind, 0, last); len(segments) > 0 {
			return segments
		}
	}

	return fs.windows(0, last)
}

func (fs *fileSplitter) intelligent() []m.CodeSegment {
	last := len(fs.lines) - 1
	limit := fs.strategy.MaxSegmentLines

	classes := fs.declarations(m.KindClass, 0, last)
	oversized := slices.ContainsFunc(classes, func(seg m.CodeSegment) bool {
		return seg.LineCount() > limit
	})

	var structural []m.CodeSegment

	fromClasses := true

	switch {
	case len(classes) == 0:
		structural = fs.declarations(m.KindFunction, 0, last)
		fromClasses = false
	case oversized && fs.strategy.AllowNestedSplitting:
		for _, class := range classes {
			if class.LineCount() <= limit {
				structural = append(structural, class)
				continue
			}

			inner := fs.declarations(m.KindFunction, class.StartLine, class.EndLine-1)
			if len(inner) == 0 {
				structural = append(structural, class)
				continue
			}

			for i := range inner {
				inner[i].Metadata[m.MetaParent] = class.Metadata[m.MetaName]
			}

			structural = append(structural, inner...)
		}
	case oversized:
		structural = fs.declarations(m.KindFunction, 0, last)
		fromClasses = false
	default:
		structural = classes
	}

	if fromClasses {
		structural = append(structural, fs.outside(classes)...)
	}

	var result []m.CodeSegment

	for _, seg := range structural {
		if seg.LineCount() <= limit {
			result = append(result, seg)
			continue
		}

		windows := fs.windows(seg.StartLine-1, seg.EndLine-1)
		for i := range windows {
			windows[i].Metadata[m.MetaParent] = seg.Metadata[m.MetaName]
		}

		result = append(result, windows...)
	}

	if len(result) == 0 {
		return fs.windows(0, last)
	}

	slices.SortStableFunc(result, func(a, b m.CodeSegment) int {
		return a.StartLine - b.StartLine
	})

	return result
}

// outside returns the function segments that lie entirely outside every
// class segment, so top-level functions next to a type are not lost.
func (fs *fileSplitter) outside(classes []m.CodeSegment) []m.CodeSegment {
	var out []m.CodeSegment

	for _, fn := range fs.declarations(m.KindFunction, 0, len(fs.lines)-1) {
		covered := slices.ContainsFunc(classes, func(class m.CodeSegment) bool {
			return fn.StartLine <= class.EndLine && fn.EndLine >= class.StartLine
		})
		if !covered {
			out = append(out, fn)
		}
	}

	return out
}

// declarations emits one segment per declaration of the given kind between
// the 0-based line indexes from and to. Blocks are clipped to to.
func (fs *fileSplitter) declarations(kind m.SegmentKind, from, to int) []m.CodeSegment {
	if !fs.known {
		return nil
	}

	re := fs.syntax.pattern(kind)
	if re == nil {
		return nil
	}

	bounded := fs.lines[:to+1]
	segments := []m.CodeSegment{}
	covered := -1

	for i := from; i <= to; i++ {
		if i <= covered {
			continue
		}

		name, ok := declarationName(re, fs.lines[i])
		if !ok {
			continue
		}

		end := fs.syntax.detector.BlockEnd(bounded, i)
		covered = end

		if fs.strategy.MinSegmentLines > 1 && end-i+1 < fs.strategy.MinSegmentLines {
			continue
		}

		seg := fs.segment(i, end, kind)
		if name != "" {
			seg.Metadata[m.MetaName] = name
		}

		segments = append(segments, seg)
	}

	return segments
}

// windows slides a window of WindowSize lines over the 0-based range
// [from, to], stepping by WindowSize-WindowOverlap.
func (fs *fileSplitter) windows(from, to int) []m.CodeSegment {
	size := fs.strategy.WindowSize
	step := max(size-fs.strategy.WindowOverlap, 1)
	segments := []m.CodeSegment{}

	for start := from; start <= to; start += step {
		end := min(start+size-1, to)

		if end-start+1 >= fs.strategy.MinSegmentLines && !blank(fs.lines[start:end+1]) {
			segments = append(segments, fs.segment(start, end, m.KindLines))
		}

		if end == to {
			break
		}
	}

	return segments
}

func (fs *fileSplitter) segment(start, end int, kind m.SegmentKind) m.CodeSegment {
	return m.CodeSegment{
		Path:      fs.path,
		Content:   strings.Join(fs.lines[start:end+1], "\n"),
		StartLine: start + 1,
		EndLine:   end + 1,
		Language:  fs.language,
		Kind:      kind,
		Metadata:  map[string]string{},
	}
}

func blank(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}

	return true
}
