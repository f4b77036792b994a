package domain_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/controller"
	"prscore.dev/pkg/prscore/internal/domain"
	"prscore.dev/pkg/prscore/internal/domain/providers"
	m "prscore.dev/pkg/prscore/internal/model"
)

func examplePath(parts ...string) m.Path {
	return m.Path(filepath.Join(append([]string{"..", "..", "examples"}, parts...)...))
}

func newIntegrationWorkflow(t *testing.T) (domain.Workflow, *bytes.Buffer, adapter.ReportStore) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	store := adapter.NewLocalReportStore(t.TempDir())

	wf := domain.NewWorkflow(
		adapter.NewLocalDiffSourceAdapter(&bytes.Buffer{}),
		adapter.NewLocalReviewConfigAdapter(),
		store,
		controller.NewSimpleUI(cmd),
		domain.NewSegmenter(),
		domain.NewAnalysisRunner(domain.RunnerOptions{Workers: 2}),
		domain.NewAggregator(),
		domain.NewScoringEngine(),
		domain.NewRunAssembler(),
		providers.NewRegistry(nil).Build,
	)

	return wf, out, store
}

func findingAt(findings []m.Finding, title string, path m.Path, line int) bool {
	for _, f := range findings {
		if f.Title == title && f.Path == path && f.StartLine == line {
			return true
		}
	}

	return false
}

func TestReviewIntegration(t *testing.T) {
	t.Run("credentials example is flagged and stored", func(t *testing.T) {
		ctx := context.Background()
		wf, out, store := newIntegrationWorkflow(t)
		reports := m.Path(t.TempDir())

		run, err := wf.Review(ctx, domain.ReviewArgs{
			Diff:        examplePath("credentials", "pr.diff"),
			Config:      examplePath("credentials"),
			Reports:     reports,
			Repository:  "acme/widgets",
			PullRequest: "7",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{providers.RulesID, providers.ChangeSizeID}, run.Providers)
		assert.Equal(t, 2, run.Stats.FilesChanged)
		assert.Equal(t, 2, run.Stats.Segments)
		assert.Empty(t, run.Stats.Warnings)

		assert.True(t, findingAt(run.Findings, "Hard-coded credential", "internal/config/config.go", 4), "credential")
		assert.True(t, findingAt(run.Findings, "Unresolved TODO marker", "internal/config/config.go", 3), "todo")
		assert.True(t, findingAt(run.Findings, "Debug output left in code", "web/app.js", 2), "debug output")
		assert.True(t, findingAt(run.Findings, "Dynamic code evaluation", "web/app.js", 3), "eval")

		assert.Less(t, run.Scores.Dimensions[m.DimensionSecurity], 100.0)
		assert.Less(t, run.Scores.Total, 100.0)
		assert.InDelta(t, 100.0, run.Scores.Dimensions[m.DimensionPerformance], 1e-9)

		stored, err := store.LoadRun(ctx, reports, run.RunID)
		require.NoError(t, err)
		assert.Equal(t, run.RunID, stored.RunID)
		assert.Len(t, stored.Findings, len(run.Findings))

		assert.Contains(t, out.String(), "Hard-coded credential")
		assert.Contains(t, out.String(), "acme/widgets#7")
	})

	t.Run("empty diff scores perfectly", func(t *testing.T) {
		wf, _, _ := newIntegrationWorkflow(t)

		run, err := wf.Review(context.Background(), domain.ReviewArgs{
			Diff:   examplePath("empty", "pr.diff"),
			Config: examplePath("empty"),
		})
		require.NoError(t, err)

		assert.NotNil(t, run.Findings)
		assert.Empty(t, run.Findings)
		assert.Empty(t, run.Stats.Tasks)
		assert.InDelta(t, 100.0, run.Scores.Total, 1e-9)

		for _, dimension := range m.Dimensions() {
			assert.InDelta(t, 100.0, run.Scores.Dimensions[dimension], 1e-9, dimension)
		}
	})

	t.Run("rescore under another config keeps findings", func(t *testing.T) {
		ctx := context.Background()
		wf, _, _ := newIntegrationWorkflow(t)
		reports := m.Path(t.TempDir())

		original, err := wf.Review(ctx, domain.ReviewArgs{
			Diff:    examplePath("credentials", "pr.diff"),
			Config:  examplePath("credentials"),
			Reports: reports,
		})
		require.NoError(t, err)

		rescored, err := wf.Rescore(ctx, domain.RescoreArgs{
			Reports: reports,
			Config:  examplePath("empty"),
			RunID:   original.RunID,
		})
		require.NoError(t, err)

		assert.NotEqual(t, original.RunID, rescored.RunID)
		assert.Len(t, rescored.Findings, len(original.Findings))
		assert.InDelta(t, original.Scores.Total, rescored.Scores.Total, 1e-9)
	})
}
