package providers

import (
	"context"
	"fmt"
	"path"
	"strings"

	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

// ChangeSizeID is the registry id of the change-size heuristics provider.
const ChangeSizeID = "changesize"

// Default change-size limits.
const (
	DefaultMaxFileChanges  = 400
	DefaultMaxTotalChanges = 1000
)

// ChangeSizeOptions sets the thresholds of the change-size heuristics.
type ChangeSizeOptions struct {
	MaxFileChanges  int
	MaxTotalChanges int
}

// ChangeSizeProvider flags pull requests that are hard to review: oversized
// files, very large diffs and source changes without test changes.
type ChangeSizeProvider struct {
	opts    ChangeSizeOptions
	enabled bool
}

// NewChangeSizeProvider creates a ChangeSizeProvider. Non-positive limits
// take their defaults.
func NewChangeSizeProvider(enabled bool, opts ChangeSizeOptions) *ChangeSizeProvider {
	if opts.MaxFileChanges <= 0 {
		opts.MaxFileChanges = DefaultMaxFileChanges
	}

	if opts.MaxTotalChanges <= 0 {
		opts.MaxTotalChanges = DefaultMaxTotalChanges
	}

	return &ChangeSizeProvider{opts: opts, enabled: enabled}
}

func (p *ChangeSizeProvider) ID() string                     { return ChangeSizeID }
func (p *ChangeSizeProvider) Name() string                   { return "Change size heuristics" }
func (p *ChangeSizeProvider) Version() string                { return "1.0.0" }
func (p *ChangeSizeProvider) Enabled() bool                  { return p.enabled }
func (p *ChangeSizeProvider) Supports(m.Path, m.Language) bool { return true }

// Analyze implements domain.Provider.
func (p *ChangeSizeProvider) Analyze(ctx context.Context, req domain.AnalysisRequest) ([]m.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings := []m.Finding{}
	total := 0
	hasTests := false

	var untested []m.DiffHunk

	for _, hunk := range req.Hunks {
		changed := hunk.Additions + hunk.Deletions
		total += changed

		if changed > p.opts.MaxFileChanges {
			findings = append(findings, p.finding(hunk.Path, m.SeverityMajor, m.DimensionMaintainability, 0.6,
				"Oversized file change",
				fmt.Sprintf("%d lines changed (limit %d)", changed, p.opts.MaxFileChanges),
				"Split the change into smaller, focused commits."))
		}

		switch {
		case IsTestFile(hunk.Path):
			hasTests = true
		case hunk.Status != m.StatusDeleted && hunk.Additions > 0 && m.DetectLanguage(hunk.Path) != m.LanguageText:
			untested = append(untested, hunk)
		}
	}

	if !hasTests {
		for _, hunk := range untested {
			findings = append(findings, p.finding(hunk.Path, m.SeverityMinor, m.DimensionTestCoverage, 0.5,
				"Source change without tests",
				fmt.Sprintf("%d lines added and no test file changed", hunk.Additions),
				"Add or update tests covering this change."))
		}
	}

	if total > p.opts.MaxTotalChanges && len(req.Hunks) > 0 {
		findings = append(findings, p.finding(req.Hunks[0].Path, m.SeverityMajor, m.DimensionQuality, 0.7,
			"Very large pull request",
			fmt.Sprintf("%d lines changed across %d files (limit %d)", total, len(req.Hunks), p.opts.MaxTotalChanges),
			"Break the pull request into independently reviewable parts."))
	}

	return findings, nil
}

func (p *ChangeSizeProvider) finding(
	file m.Path,
	severity m.Severity,
	dimension m.Dimension,
	confidence float64,
	title, evidence, suggestion string,
) m.Finding {
	return m.Finding{
		Path:       file,
		StartLine:  1,
		EndLine:    1,
		Severity:   severity,
		Dimension:  dimension,
		Title:      title,
		Evidence:   evidence,
		Suggestion: suggestion,
		Sources:    []string{ChangeSizeID},
		Confidence: confidence,
	}
}

// IsTestFile reports whether file follows a common test file convention.
func IsTestFile(file m.Path) bool {
	p := strings.ToLower(string(file))
	base := path.Base(p)

	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasSuffix(base, "_test.py"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.HasSuffix(base, "test.java"),
		strings.HasSuffix(base, "tests.java"),
		strings.HasSuffix(base, "test.kt"),
		strings.HasSuffix(base, "tests.cs"),
		strings.HasSuffix(base, "_spec.rb"):
		return true
	}

	for _, dir := range []string{"test/", "tests/", "__tests__/", "spec/"} {
		if strings.HasPrefix(p, dir) || strings.Contains(p, "/"+dir) {
			return true
		}
	}

	return false
}
