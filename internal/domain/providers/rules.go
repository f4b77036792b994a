package providers

import (
	"context"
	"regexp"
	"strings"

	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

// RulesID is the registry id of the pattern rules provider.
const RulesID = "rules"

// Rule flags every segment line matching Pattern.
type Rule struct {
	ID         string
	Title      string
	Pattern    *regexp.Regexp
	Severity   m.Severity
	Dimension  m.Dimension
	Confidence float64
	Suggestion string
	// Languages restricts the rule; empty means every language.
	Languages []m.Language
}

func (r Rule) appliesTo(lang m.Language) bool {
	if len(r.Languages) == 0 {
		return true
	}

	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}

	return false
}

var scriptLanguages = []m.Language{m.LanguageJavaScript, m.LanguageTypeScript, m.LanguagePython, m.LanguagePHP, m.LanguageRuby}

var sourceLanguages = []m.Language{
	m.LanguageGo, m.LanguageJava, m.LanguageCSharp, m.LanguageKotlin, m.LanguageScala,
	m.LanguageJavaScript, m.LanguageTypeScript, m.LanguagePython, m.LanguageRuby,
	m.LanguageRust, m.LanguagePHP, m.LanguageSwift, m.LanguageC, m.LanguageCPP,
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:         "hardcoded-credential",
			Title:      "Hard-coded credential",
			Pattern:    regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|access[_-]?token|credential)\w*\s*(:=|=|:)\s*["'][^"']{6,}["']`),
			Severity:   m.SeverityCritical,
			Dimension:  m.DimensionSecurity,
			Confidence: 0.8,
			Suggestion: "Load the value from the environment or a secret manager.",
		},
		{
			ID:         "private-key",
			Title:      "Private key committed",
			Pattern:    regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
			Severity:   m.SeverityCritical,
			Dimension:  m.DimensionSecurity,
			Confidence: 0.95,
			Suggestion: "Remove the key and rotate it.",
		},
		{
			ID:         "dynamic-eval",
			Title:      "Dynamic code evaluation",
			Pattern:    regexp.MustCompile(`(^|[^\w.])eval\s*\(`),
			Severity:   m.SeverityMajor,
			Dimension:  m.DimensionSecurity,
			Confidence: 0.7,
			Suggestion: "Avoid evaluating strings as code.",
			Languages:  scriptLanguages,
		},
		{
			ID:         "debug-output",
			Title:      "Debug output left in code",
			Pattern:    regexp.MustCompile(`console\.log\(|System\.out\.println\(|\bprintStackTrace\(\)|\bdebugger;`),
			Severity:   m.SeverityMinor,
			Dimension:  m.DimensionQuality,
			Confidence: 0.5,
			Suggestion: "Use the project logger or remove the statement.",
			Languages:  []m.Language{m.LanguageJavaScript, m.LanguageTypeScript, m.LanguageJava, m.LanguageKotlin},
		},
		{
			ID:         "empty-catch",
			Title:      "Swallowed exception",
			Pattern:    regexp.MustCompile(`catch\s*(\([^)]*\))?\s*\{\s*\}|^\s*except[^:]*:\s*pass\s*$`),
			Severity:   m.SeverityMajor,
			Dimension:  m.DimensionQuality,
			Confidence: 0.6,
			Suggestion: "Handle or log the error.",
			Languages:  sourceLanguages,
		},
		{
			ID:         "todo-marker",
			Title:      "Unresolved TODO marker",
			Pattern:    regexp.MustCompile(`\b(TODO|FIXME|XXX|HACK)\b`),
			Severity:   m.SeverityInfo,
			Dimension:  m.DimensionMaintainability,
			Confidence: 0.9,
			Languages:  sourceLanguages,
		},
		{
			ID:         "long-line",
			Title:      "Line exceeds 160 characters",
			Pattern:    regexp.MustCompile(`^.{161,}$`),
			Severity:   m.SeverityInfo,
			Dimension:  m.DimensionMaintainability,
			Confidence: 0.4,
			Languages:  sourceLanguages,
		},
	}
}

// RulesProvider reports regular-expression matches over changed segments.
type RulesProvider struct {
	rules   []Rule
	enabled bool
}

// NewRulesProvider creates a RulesProvider. No rules means DefaultRules.
func NewRulesProvider(enabled bool, rules ...Rule) *RulesProvider {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	return &RulesProvider{rules: rules, enabled: enabled}
}

func (p *RulesProvider) ID() string      { return RulesID }
func (p *RulesProvider) Name() string    { return "Pattern rules" }
func (p *RulesProvider) Version() string { return "1.0.0" }
func (p *RulesProvider) Enabled() bool   { return p.enabled }

// Supports reports whether any rule applies to language.
func (p *RulesProvider) Supports(_ m.Path, language m.Language) bool {
	for _, rule := range p.rules {
		if rule.appliesTo(language) {
			return true
		}
	}

	return false
}

// Analyze implements domain.Provider. Segments are scanned first, then the
// full post-change content of each hunk so that lines outside every segment
// (package-level declarations under INTELLIGENT) are still checked. A line is
// reported once per rule.
func (p *RulesProvider) Analyze(ctx context.Context, req domain.AnalysisRequest) ([]m.Finding, error) {
	scan := &ruleScan{rules: p.rules, seen: make(map[ruleHit]struct{}), findings: []m.Finding{}}

	for _, segment := range req.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines := strings.Split(segment.Content, "\n")
		if span := max(segment.EndLine-segment.StartLine+1, 0); span < len(lines) {
			lines = lines[:span]
		}

		scan.lines(segment.Path, segment.Language, segment.StartLine, lines)
	}

	for _, hunk := range req.Hunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if hunk.Status == m.StatusDeleted {
			continue
		}

		content := domain.ExtractContent(hunk.Patch)
		if strings.TrimSpace(content) == "" {
			continue
		}

		scan.lines(hunk.Path, m.DetectLanguage(hunk.Path), 1, strings.Split(content, "\n"))
	}

	return scan.findings, nil
}

type ruleHit struct {
	path m.Path
	line int
	rule string
}

type ruleScan struct {
	rules    []Rule
	seen     map[ruleHit]struct{}
	findings []m.Finding
}

func (s *ruleScan) lines(path m.Path, language m.Language, startLine int, lines []string) {
	for i, line := range lines {
		lineNo := startLine + i

		for _, rule := range s.rules {
			if !rule.appliesTo(language) || !rule.Pattern.MatchString(line) {
				continue
			}

			hit := ruleHit{path, lineNo, rule.ID}
			if _, dup := s.seen[hit]; dup {
				continue
			}

			s.seen[hit] = struct{}{}

			s.findings = append(s.findings, m.Finding{
				Path:       path,
				StartLine:  lineNo,
				EndLine:    lineNo,
				Severity:   rule.Severity,
				Dimension:  rule.Dimension,
				Title:      rule.Title,
				Evidence:   strings.TrimSpace(line),
				Suggestion: rule.Suggestion,
				Sources:    []string{RulesID},
				Confidence: rule.Confidence,
			})
		}
	}
}
