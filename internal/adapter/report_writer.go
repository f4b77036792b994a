package adapter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"gopkg.in/yaml.v3"
	m "prscore.dev/pkg/prscore/internal/model"
)

// ReportFormat is an export format for run results.
type ReportFormat string

// Supported export formats.
const (
	FormatJSON  ReportFormat = "json"
	FormatYAML  ReportFormat = "yaml"
	FormatSARIF ReportFormat = "sarif"
)

const (
	toolName = "prscore"
	toolURI  = "https://prscore.dev"
)

// ParseReportFormat validates a format name.
func ParseReportFormat(name string) (ReportFormat, error) {
	switch format := ReportFormat(strings.ToLower(strings.TrimSpace(name))); format {
	case FormatJSON, FormatYAML, FormatSARIF:
		return format, nil
	}

	return "", fmt.Errorf("unsupported report format %q (want json, yaml or sarif)", name)
}

// ReportWriter renders a run in one of the export formats.
type ReportWriter interface {
	Write(w io.Writer, run m.RunResult, format ReportFormat) error
}

// LocalReportWriter implements ReportWriter.
type LocalReportWriter struct{}

// NewLocalReportWriter constructs a LocalReportWriter.
func NewLocalReportWriter() *LocalReportWriter {
	return &LocalReportWriter{}
}

// Write implements ReportWriter.
func (rw *LocalReportWriter) Write(w io.Writer, run m.RunResult, format ReportFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(run); err != nil {
			return fmt.Errorf("failed to write json report: %w", err)
		}

		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)

		if err := encoder.Encode(run); err != nil {
			return fmt.Errorf("failed to write yaml report: %w", err)
		}

		return encoder.Close()
	case FormatSARIF:
		return writeSarif(w, run)
	}

	return fmt.Errorf("unsupported report format %q", format)
}

func writeSarif(w io.Writer, run m.RunResult) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create sarif report: %w", err)
	}

	sarifRun := sarif.NewRunWithInformationURI(toolName, toolURI)

	for _, finding := range run.Findings {
		description := finding.Title
		if finding.Suggestion != "" {
			description += ": " + finding.Suggestion
		}

		rule := sarifRun.AddRule(ruleID(finding)).
			WithDescription(finding.Title).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: sarifLevel(finding.Severity),
			})

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(string(finding.Path))).
				WithRegion(sarif.NewRegion().WithStartLine(finding.StartLine).WithEndLine(finding.EndLine)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(description)).
			WithLevel(sarifLevel(finding.Severity)).
			WithLocations([]*sarif.Location{location})

		sarifRun.AddResult(result)
	}

	report.AddRun(sarifRun)

	if err := report.PrettyWrite(w); err != nil {
		return fmt.Errorf("failed to write sarif report: %w", err)
	}

	return nil
}

// ruleID groups findings with the same dimension and title under one rule.
func ruleID(finding m.Finding) string {
	var b strings.Builder

	b.WriteString(strings.ToLower(string(finding.Dimension)))
	b.WriteString("/")

	dash := false

	for _, r := range strings.ToLower(finding.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			dash = false
		case !dash:
			b.WriteRune('-')

			dash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

func sarifLevel(severity m.Severity) string {
	switch severity {
	case m.SeverityCritical, m.SeverityMajor:
		return "error"
	case m.SeverityMinor:
		return "warning"
	case m.SeverityInfo:
		return "note"
	}

	return "none"
}
