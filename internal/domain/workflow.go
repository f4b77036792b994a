package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/controller"
	m "prscore.dev/pkg/prscore/internal/model"
)

// ProviderFactory instantiates the providers selected by a review config.
type ProviderFactory func(selections []m.ProviderSelection) []Provider

// ReviewArgs contains the arguments for reviewing one diff.
type ReviewArgs struct {
	Diff        m.Path
	Config      m.Path
	Reports     m.Path
	Repository  string
	PullRequest string
	// Strategy overrides the segmentation strategy of the review config.
	Strategy string
	Cost     *float64
}

// SegmentsArgs contains the arguments for listing the segments of a diff.
type SegmentsArgs struct {
	Diff     m.Path
	Config   m.Path
	Strategy string
}

// ViewArgs selects stored runs to display. An empty RunID lists every run.
type ViewArgs struct {
	Reports m.Path
	RunID   string
}

// RescoreArgs selects a stored run to score again under the current config.
type RescoreArgs struct {
	Reports m.Path
	Config  m.Path
	RunID   string
}

// Workflow chains the review pipeline and its supporting commands.
type Workflow interface {
	Review(ctx context.Context, args ReviewArgs) (m.RunResult, error)
	Segments(ctx context.Context, args SegmentsArgs) ([]m.CodeSegment, error)
	View(ctx context.Context, args ViewArgs) error
	Rescore(ctx context.Context, args RescoreArgs) (m.RunResult, error)
}

type workflow struct {
	adapter.DiffSourceAdapter
	adapter.ReviewConfigAdapter
	adapter.ReportStore
	controller.UI
	Segmenter
	AnalysisRunner
	Aggregator
	ScoringEngine
	RunAssembler
	providers ProviderFactory
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	diffSource adapter.DiffSourceAdapter,
	reviewConfig adapter.ReviewConfigAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	segmenter Segmenter,
	runner AnalysisRunner,
	aggregator Aggregator,
	scoring ScoringEngine,
	assembler RunAssembler,
	providers ProviderFactory,
) Workflow {
	return &workflow{
		DiffSourceAdapter:   diffSource,
		ReviewConfigAdapter: reviewConfig,
		ReportStore:         reportStore,
		UI:                  ui,
		Segmenter:           segmenter,
		AnalysisRunner:      runner,
		Aggregator:          aggregator,
		ScoringEngine:       scoring,
		RunAssembler:        assembler,
		providers:           providers,
	}
}

// Review runs the full pipeline over one diff and saves the result. Only
// reading the diff and saving the run can fail; provider and config problems
// degrade the run instead.
func (w *workflow) Review(ctx context.Context, args ReviewArgs) (m.RunResult, error) {
	started := time.Now()

	if err := w.Start(ctx, controller.WithReviewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.RunResult{}, err
	}

	defer w.Close(ctx)

	hunks, err := w.ListDiff(ctx, args.Diff)
	if err != nil {
		return m.RunResult{}, fmt.Errorf("load diff: %w", err)
	}

	cfg := w.LoadReviewConfig(ctx, args.Config)
	segments := w.split(hunks, cfg.Segmentation, args.Strategy)

	providers := w.providers(cfg.Providers)
	slog.Info("Reviewing diff", "files", len(hunks), "segments", len(segments), "providers", providerIDs(providers))

	outcomes := w.Run(ctx, RunRequest{
		Repository:  args.Repository,
		PullRequest: args.PullRequest,
		Hunks:       hunks,
		Segments:    segments,
		Config:      cfg,
	}, providers)

	aggregation := w.Aggregate(outcomes)
	stats := m.StatsFor(hunks)
	scores := w.Score(aggregation.Findings, stats.LinesChanged(), &cfg.Scoring)

	run := w.Assemble(AssemblyInput{
		Repository:  args.Repository,
		PullRequest: args.PullRequest,
		Diff:        stats,
		Segments:    len(segments),
		Latency:     time.Since(started),
		Cost:        args.Cost,
		Outcomes:    outcomes,
		Aggregation: aggregation,
		Scores:      scores,
	})

	if err := w.save(ctx, args.Reports, run); err != nil {
		return run, err
	}

	if err := w.DisplayRunResult(ctx, run); err != nil {
		slog.Error("Failed to display run", "runId", run.RunID, "error", err)
	}

	w.Wait(ctx)

	return run, nil
}

// Segments splits a diff without analysing it.
func (w *workflow) Segments(ctx context.Context, args SegmentsArgs) ([]m.CodeSegment, error) {
	if err := w.Start(ctx, controller.WithSegmentsMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return nil, err
	}

	defer w.Close(ctx)

	hunks, err := w.ListDiff(ctx, args.Diff)
	if err != nil {
		return nil, fmt.Errorf("load diff: %w", err)
	}

	cfg := w.LoadReviewConfig(ctx, args.Config)
	segments := w.split(hunks, cfg.Segmentation, args.Strategy)

	if err := w.DisplaySegments(ctx, segments); err != nil {
		return segments, fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return segments, nil
}

// View displays one stored run, or all of them oldest first.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	defer w.Close(ctx)

	if args.RunID != "" {
		run, err := w.LoadRun(ctx, args.Reports, args.RunID)
		if err != nil {
			return fmt.Errorf("load run: %w", err)
		}

		if err := w.DisplayRunResult(ctx, run); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		w.Wait(ctx)

		return nil
	}

	runs, err := w.LoadRuns(ctx, args.Reports)
	if err != nil {
		return fmt.Errorf("load runs: %w", err)
	}

	defer func() {
		if err := runs.Remove(); err != nil {
			slog.Warn("Failed to remove run spill", "path", runs.Path(), "error", err)
		}
	}()

	if err := w.DisplayRuns(ctx, runs); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}

// Rescore recomputes the scores of a stored run under the current review
// config and saves the outcome as a new run.
func (w *workflow) Rescore(ctx context.Context, args RescoreArgs) (m.RunResult, error) {
	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.RunResult{}, err
	}

	defer w.Close(ctx)

	stored, err := w.LoadRun(ctx, args.Reports, args.RunID)
	if err != nil {
		return m.RunResult{}, fmt.Errorf("load run: %w", err)
	}

	cfg := w.LoadReviewConfig(ctx, args.Config)
	scores := w.Score(stored.Findings, stored.Stats.LinesChanged, &cfg.Scoring)
	run := w.RunAssembler.Rescore(stored, scores)

	slog.Info("Rescored run", "from", stored.RunID, "to", run.RunID, "before", stored.Scores.Total, "after", scores.Total)

	if err := w.save(ctx, args.Reports, run); err != nil {
		return run, err
	}

	if err := w.DisplayRunResult(ctx, run); err != nil {
		slog.Error("Failed to display run", "runId", run.RunID, "error", err)
	}

	w.Wait(ctx)

	return run, nil
}

// split resolves the strategy, falling back to the default strategy when the
// configured one is invalid.
func (w *workflow) split(hunks []m.DiffHunk, segmentation m.SegmentationConfig, override string) []m.CodeSegment {
	if override != "" {
		segmentation.Strategy = override
	}

	strategy, err := segmentation.Resolve()
	if err != nil {
		slog.Warn("Invalid segmentation config, using defaults", "strategy", segmentation.Strategy, "error", err)
		strategy = m.DefaultStrategy(m.StrategyIntelligent)
	}

	segments, err := w.Split(hunks, strategy)
	if err != nil {
		slog.Error("Failed to split diff", "error", err)
		return []m.CodeSegment{}
	}

	return segments
}

func (w *workflow) save(ctx context.Context, reports m.Path, run m.RunResult) error {
	if reports == "" {
		return nil
	}

	if _, err := w.SaveRun(ctx, reports, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	return nil
}
