package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

const redacted = "[REDACTED]"

// ErrInvalidOutput is returned when an external analyzer prints something
// other than a JSON array of findings.
var ErrInvalidOutput = errors.New("invalid analyzer output")

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential|api[_-]?key)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
}

// CommandOptions configures an external analyzer.
type CommandOptions struct {
	ID      string
	Command string
	Args    []string
	Timeout time.Duration
	Enabled bool
}

// CommandProvider runs an external analyzer. Segments are sent as JSON on
// stdin with secrets redacted; stdout must hold a JSON array of findings,
// optionally wrapped in a markdown code fence.
type CommandProvider struct {
	opts   CommandOptions
	runner adapter.CommandRunnerAdapter
}

// NewCommandProvider creates a CommandProvider using runner.
func NewCommandProvider(opts CommandOptions, runner adapter.CommandRunnerAdapter) *CommandProvider {
	return &CommandProvider{opts: opts, runner: runner}
}

func (p *CommandProvider) ID() string                       { return p.opts.ID }
func (p *CommandProvider) Name() string                     { return p.opts.Command }
func (p *CommandProvider) Version() string                  { return "external" }
func (p *CommandProvider) Enabled() bool                    { return p.opts.Enabled }
func (p *CommandProvider) Supports(m.Path, m.Language) bool { return true }

// Timeout implements domain.TimeoutProvider.
func (p *CommandProvider) Timeout() time.Duration {
	return p.opts.Timeout
}

type commandSegment struct {
	Path      m.Path        `json:"path"`
	Language  m.Language    `json:"language"`
	Kind      m.SegmentKind `json:"kind"`
	StartLine int           `json:"startLine"`
	EndLine   int           `json:"endLine"`
	Content   string        `json:"content"`
}

type commandPayload struct {
	Repository  string           `json:"repository"`
	PullRequest string           `json:"pullRequest"`
	Segments    []commandSegment `json:"segments"`
}

type rawFinding struct {
	Path       string  `json:"path"`
	StartLine  int     `json:"startLine"`
	EndLine    int     `json:"endLine"`
	Severity   string  `json:"severity"`
	Dimension  string  `json:"dimension"`
	Title      string  `json:"title"`
	Evidence   string  `json:"evidence"`
	Suggestion string  `json:"suggestion"`
	Patch      string  `json:"patch"`
	Confidence float64 `json:"confidence"`
}

// Analyze implements domain.Provider.
func (p *CommandProvider) Analyze(ctx context.Context, req domain.AnalysisRequest) ([]m.Finding, error) {
	payload := commandPayload{
		Repository:  req.Repository,
		PullRequest: req.PullRequest,
		Segments:    make([]commandSegment, 0, len(req.Segments)),
	}

	for _, s := range req.Segments {
		payload.Segments = append(payload.Segments, commandSegment{
			Path:      s.Path,
			Language:  s.Language,
			Kind:      s.Kind,
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			Content:   RedactSecrets(s.Content),
		})
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analyzer input: %w", err)
	}

	result, err := p.runner.Run(ctx, input, p.opts.Command, p.opts.Args...)
	if err != nil {
		slog.Error("Analyzer command failed", "provider", p.opts.ID, "stderr", strings.TrimSpace(result.Stderr), "error", err)
		return nil, err
	}

	findings, err := ParseFindings(result.Stdout)
	if err != nil {
		return nil, err
	}

	for i := range findings {
		findings[i].Sources = []string{p.opts.ID}
	}

	return findings, nil
}

// ParseFindings decodes an analyzer's stdout. Blank output means no
// findings. Severity and dimension names are upper-cased; validating them is
// left to aggregation.
func ParseFindings(out string) ([]m.Finding, error) {
	content := strings.TrimSpace(out)
	if content == "" {
		return []m.Finding{}, nil
	}

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		end := len(lines)

		if end > 1 && strings.TrimSpace(lines[end-1]) == "```" {
			end--
		}

		content = strings.Join(lines[1:end], "\n")
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}

	findings := make([]m.Finding, 0, len(raw))

	for _, r := range raw {
		findings = append(findings, m.Finding{
			Path:       m.Path(r.Path),
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			Severity:   m.Severity(strings.ToUpper(strings.TrimSpace(r.Severity))),
			Dimension:  m.Dimension(strings.ToUpper(strings.TrimSpace(r.Dimension))),
			Title:      r.Title,
			Evidence:   r.Evidence,
			Suggestion: r.Suggestion,
			Patch:      r.Patch,
			Confidence: r.Confidence,
		})
	}

	return findings, nil
}

// RedactSecrets masks credential-looking values before content leaves the
// process.
func RedactSecrets(text string) string {
	for _, pattern := range secretPatterns {
		text = pattern.ReplaceAllString(text, redacted)
	}

	return text
}
