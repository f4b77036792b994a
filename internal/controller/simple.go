package controller

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "prscore.dev/pkg/prscore/internal/model"
	pkg "prscore.dev/pkg/prscore/pkg"
)

const shortIDLength = 8

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(context.Context) {}

// DisplaySegments prints the segmentation table.
func (s *SimpleUI) DisplaySegments(ctx context.Context, segments []m.CodeSegment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderSegmentsTable(segments))

	return nil
}

// DisplayTask prints one line per task state change.
func (s *SimpleUI) DisplayTask(_ context.Context, task m.Task) {
	switch task.State {
	case m.TaskCompleted:
		s.printf("Provider %s completed: %d finding(s) in %s\n", task.Provider, task.Findings, formatDuration(task.Duration))
	case m.TaskFailed, m.TaskCancelled:
		s.printf("Provider %s %s: %s\n", task.Provider, task.State, task.Cause)
	case m.TaskRunning:
		s.printf("Provider %s running\n", task.Provider)
	case m.TaskPending:
	}
}

// DisplayRunResult prints scores, findings and warnings of a run.
func (s *SimpleUI) DisplayRunResult(ctx context.Context, run m.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderRunSummary(run))
	s.printf("\n%s", renderScoresTable(run.Scores))

	if len(run.Findings) > 0 {
		s.printf("\n%s", renderFindingsTable(run.Findings))
	}

	for _, warning := range run.Stats.Warnings {
		s.printf("warning: %s %s: %s\n", warning.Provider, warning.Kind, warning.Message)
	}

	return nil
}

// DisplayRuns prints one row per stored run.
func (s *SimpleUI) DisplayRuns(ctx context.Context, runs pkg.FileSpill[m.RunResult]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	table, err := renderRunsTable(runs)
	if err != nil {
		return err
	}

	s.printf("\n%s", table)

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buffer *bytes.Buffer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(buffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func renderSegmentsTable(segments []m.CodeSegment) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, "Path", "Kind", "Lines", "Language", "Name")

	files := map[m.Path]struct{}{}

	for _, segment := range segments {
		name := segment.Metadata[m.MetaName]
		if parent := segment.Metadata[m.MetaParent]; parent != "" {
			name = parent + " > " + name
		}

		table.Append([]string{
			string(segment.Path),
			string(segment.Kind),
			fmt.Sprintf("%d-%d", segment.StartLine, segment.EndLine),
			string(segment.Language),
			name,
		})

		files[segment.Path] = struct{}{}
	}

	table.SetFooter([]string{fmt.Sprintf("Total Files %d", len(files)), "", "", "", fmt.Sprintf("%d segments", len(segments))})
	table.Render()

	return tableBuffer.String()
}

func renderRunSummary(run m.RunResult) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Run %s", run.RunID)

	if run.Repository != "" {
		fmt.Fprintf(&b, " for %s", run.Repository)

		if run.PullRequest != "" {
			fmt.Fprintf(&b, "#%s", run.PullRequest)
		}
	}

	fmt.Fprintf(&b, "\n%d file(s), +%d -%d, %d segment(s), %s\n",
		run.Stats.FilesChanged, run.Stats.LinesAdded, run.Stats.LinesDeleted, run.Stats.Segments, formatDuration(run.Stats.Latency))
	fmt.Fprintf(&b, "Score: %s\n", formatScore(run.Scores.Total))

	return b.String()
}

func renderScoresTable(scores m.Scores) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, "Dimension", "Weight", "Score")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	for _, dimension := range m.Dimensions() {
		weight, ok := scores.Weights[dimension]
		if !ok {
			continue
		}

		table.Append([]string{string(dimension), fmt.Sprintf("%.2f", weight), formatScore(scores.Dimensions[dimension])})
	}

	table.SetFooter([]string{"Total", "", formatScore(scores.Total)})
	table.Render()

	return tableBuffer.String()
}

func renderFindingsTable(findings []m.Finding) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, "Severity", "Dimension", "Location", "Title", "Confidence", "Source")

	for _, finding := range findings {
		location := fmt.Sprintf("%s:%d", finding.Path, finding.StartLine)
		if finding.EndLine > finding.StartLine {
			location = fmt.Sprintf("%s-%d", location, finding.EndLine)
		}

		source := ""
		if len(finding.Sources) > 0 {
			source = finding.Sources[0]
		}

		table.Append([]string{
			string(finding.Severity),
			string(finding.Dimension),
			location,
			finding.Title,
			fmt.Sprintf("%.2f", finding.Confidence),
			source,
		})
	}

	table.Render()

	return tableBuffer.String()
}

func renderRunsTable(runs pkg.FileSpill[m.RunResult]) (string, error) {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, "Run", "Created", "Repository", "Pull Request", "Findings", "Score")

	err := runs.Range(func(_ uint64, run m.RunResult) error {
		table.Append([]string{
			shortID(run.RunID),
			run.CreatedAt.Format(time.DateTime),
			run.Repository,
			run.PullRequest,
			fmt.Sprintf("%d", len(run.Findings)),
			formatScore(run.Scores.Total),
		})

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read runs: %w", err)
	}

	table.SetFooter([]string{fmt.Sprintf("Total Runs %d", runs.Len()), "", "", "", "", ""})
	table.Render()

	return tableBuffer.String(), nil
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}

	return id
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
