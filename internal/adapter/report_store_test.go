package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "prscore.dev/pkg/prscore/internal/model"
)

func sampleRun(id string, created time.Time) m.RunResult {
	cost := 0.25

	return m.RunResult{
		RunID:       id,
		Repository:  "acme/api",
		PullRequest: "42",
		CreatedAt:   created,
		Providers:   []string{"rules"},
		Stats: m.RunStats{
			FilesChanged: 1,
			LinesAdded:   10,
			LinesChanged: 10,
			Segments:     2,
			Latency:      1500 * time.Millisecond,
			Cost:         &cost,
			Warnings:     []m.ProviderWarning{{Provider: "llm", Kind: m.WarningProviderTimeout, Message: "deadline exceeded"}},
			Tasks:        []m.Task{{ID: "t1", Provider: "rules", State: m.TaskCompleted, Findings: 1}},
		},
		Findings: []m.Finding{{
			ID:         "abc",
			Path:       "config.go",
			StartLine:  3,
			EndLine:    3,
			Severity:   m.SeverityCritical,
			Dimension:  m.DimensionSecurity,
			Title:      "Hard-coded credential",
			Sources:    []string{"rules"},
			Confidence: 0.9,
		}},
		Scores: m.Scores{
			Total:      88.5,
			Dimensions: map[m.Dimension]float64{m.DimensionSecurity: 61.6},
			Weights:    map[m.Dimension]float64{m.DimensionSecurity: 0.3},
		},
		Artifacts: []m.Artifact{},
	}
}

func TestLocalReportStore_SaveLoad(t *testing.T) {
	store := NewLocalReportStore(t.TempDir())
	dir := m.Path(filepath.Join(t.TempDir(), "runs"))
	run := sampleRun("run-1", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	path, err := store.SaveRun(context.Background(), dir, run)
	require.NoError(t, err)
	assert.Equal(t, m.Path(filepath.Join(string(dir), "run-1.json")), path)

	_, err = os.Stat(string(path) + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)

	loaded, err := store.LoadRun(context.Background(), dir, "run-1")
	require.NoError(t, err)

	if diff := cmp.Diff(run, loaded); diff != "" {
		t.Fatalf("LoadRun() mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalReportStore_LoadRunErrors(t *testing.T) {
	store := NewLocalReportStore(t.TempDir())
	dir := m.Path(t.TempDir())

	_, err := store.LoadRun(context.Background(), dir, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	for _, id := range []string{"", ".", "..", "../escape", `a\b`} {
		_, err := store.LoadRun(context.Background(), dir, id)
		require.Error(t, err, id)
		require.NotErrorIs(t, err, ErrRunNotFound, id)
	}
}

func TestLocalReportStore_LoadRunsOrdered(t *testing.T) {
	store := NewLocalReportStore(t.TempDir())
	dir := m.Path(t.TempDir())
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, run := range []m.RunResult{
		sampleRun("c", base.Add(time.Hour)),
		sampleRun("b", base),
		sampleRun("a", base),
	} {
		_, err := store.SaveRun(context.Background(), dir, run)
		require.NoError(t, err)
	}

	require.NoError(t, os.WriteFile(filepath.Join(string(dir), "broken.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(string(dir), "notes.txt"), []byte("x"), 0o600))

	spill, err := store.LoadRuns(context.Background(), dir)
	require.NoError(t, err)

	t.Cleanup(func() { _ = spill.Remove() })

	var ids []string

	require.NoError(t, spill.Range(func(_ uint64, run m.RunResult) error {
		ids = append(ids, run.RunID)
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	first, err := spill.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "Hard-coded credential", first.Findings[0].Title)
	assert.InDelta(t, 61.6, first.Scores.Dimensions[m.DimensionSecurity], 1e-9)
}

func TestLocalReportStore_LoadRunsMissingDir(t *testing.T) {
	store := NewLocalReportStore(t.TempDir())

	spill, err := store.LoadRuns(context.Background(), m.Path(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)

	t.Cleanup(func() { _ = spill.Remove() })

	assert.Zero(t, spill.Len())
}

func TestLocalReportStore_Cancelled(t *testing.T) {
	store := NewLocalReportStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.SaveRun(ctx, m.Path(t.TempDir()), sampleRun("x", time.Now()))
	require.ErrorIs(t, err, context.Canceled)
}
