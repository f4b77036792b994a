package adapter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	m "prscore.dev/pkg/prscore/internal/model"
)

func TestParseReportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" YAML ", FormatYAML, false},
		{"Sarif", FormatSARIF, false},
		{"markdown", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReportFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalReportWriter_JSON(t *testing.T) {
	run := sampleRun("run-json", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, NewLocalReportWriter().Write(&buf, run, FormatJSON))

	var decoded m.RunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-json", decoded.RunID)
	assert.Contains(t, buf.String(), `"pullRequest": "42"`)
}

func TestLocalReportWriter_YAML(t *testing.T) {
	run := sampleRun("run-yaml", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, NewLocalReportWriter().Write(&buf, run, FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-yaml", decoded["runId"])
	assert.Contains(t, buf.String(), "latency: 1.5s")
}

func TestLocalReportWriter_SARIF(t *testing.T) {
	run := sampleRun("run-sarif", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	run.Findings = append(run.Findings,
		m.Finding{Path: "config.go", StartLine: 9, EndLine: 9, Severity: m.SeverityCritical, Dimension: m.DimensionSecurity, Title: "Hard-coded credential"},
		m.Finding{Path: "util.go", StartLine: 1, EndLine: 2, Severity: m.SeverityInfo, Dimension: m.DimensionMaintainability, Title: "TODO marker", Suggestion: "Track it"},
	)

	var buf bytes.Buffer
	require.NoError(t, NewLocalReportWriter().Write(&buf, run, FormatSARIF))

	var report struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "2.1.0", report.Version)
	require.Len(t, report.Runs, 1)

	sarifRun := report.Runs[0]
	assert.Equal(t, "prscore", sarifRun.Tool.Driver.Name)
	require.Len(t, sarifRun.Tool.Driver.Rules, 2)
	assert.Equal(t, "security/hard-coded-credential", sarifRun.Tool.Driver.Rules[0].ID)

	require.Len(t, sarifRun.Results, 3)
	assert.Equal(t, "error", sarifRun.Results[0].Level)
	assert.Equal(t, "config.go", sarifRun.Results[1].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 9, sarifRun.Results[1].Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "note", sarifRun.Results[2].Level)
	assert.Equal(t, "maintainability/todo-marker", sarifRun.Results[2].RuleID)
	assert.Equal(t, "TODO marker: Track it", sarifRun.Results[2].Message.Text)
}

func TestLocalReportWriter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, NewLocalReportWriter().Write(&buf, m.RunResult{}, ReportFormat("html")))
}

func TestSarifLevel(t *testing.T) {
	assert.Equal(t, "error", sarifLevel(m.SeverityCritical))
	assert.Equal(t, "error", sarifLevel(m.SeverityMajor))
	assert.Equal(t, "warning", sarifLevel(m.SeverityMinor))
	assert.Equal(t, "note", sarifLevel(m.SeverityInfo))
	assert.Equal(t, "none", sarifLevel(m.Severity("BLOCKER")))
}
