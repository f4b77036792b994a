package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	m "prscore.dev/pkg/prscore/internal/model"
)

// OutcomeStatus is how a provider task ended.
type OutcomeStatus string

// Provider outcome statuses.
const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeTimeout   OutcomeStatus = "timeout"
	OutcomeCancelled OutcomeStatus = "cancelled"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// ProviderOutcome is the result of one provider within a run. Failed,
// timed out and cancelled outcomes carry no findings.
type ProviderOutcome struct {
	Provider string
	Status   OutcomeStatus
	Findings []m.Finding
	Err      error
	Duration time.Duration
	Task     m.Task
}

// RunRequest is the shared, read-only input of a run.
type RunRequest struct {
	Repository  string
	PullRequest string
	Hunks       []m.DiffHunk
	Segments    []m.CodeSegment
	Config      m.ReviewConfig
}

// RunnerOptions bounds the concurrency and latency of a run. Zero values
// disable the corresponding limit.
type RunnerOptions struct {
	Workers         int
	ProviderTimeout time.Duration
	RunTimeout      time.Duration
}

// AnalysisRunner invokes providers concurrently and isolates their failures.
type AnalysisRunner interface {
	Run(ctx context.Context, req RunRequest, providers []Provider) []ProviderOutcome
}

type analysisRunner struct {
	opts      RunnerOptions
	listeners []TaskListener
}

// NewAnalysisRunner creates an AnalysisRunner. Listeners receive every task
// state change of every run.
func NewAnalysisRunner(opts RunnerOptions, listeners ...TaskListener) AnalysisRunner {
	return &analysisRunner{
		opts:      opts,
		listeners: listeners,
	}
}

// Run executes each enabled, applicable provider once and returns one
// outcome per provider in registration order. It returns only after every
// task has resolved.
func (r *analysisRunner) Run(ctx context.Context, req RunRequest, providers []Provider) []ProviderOutcome {
	runCtx, cancel := r.runContext(ctx)
	defer cancel()

	tracker := NewTaskTracker(r.listeners...)
	outcomes := make([]ProviderOutcome, len(providers))

	var group errgroup.Group
	if r.opts.Workers > 0 {
		group.SetLimit(r.opts.Workers)
	}

	for i, provider := range providers {
		outcomes[i] = ProviderOutcome{Provider: provider.ID(), Status: OutcomeSkipped}

		if !provider.Enabled() {
			slog.Info("Skipping disabled provider", "provider", provider.ID())
			continue
		}

		providerReq := applicableRequest(provider, req)
		if len(providerReq.Hunks) == 0 {
			slog.Info("Skipping provider without applicable files", "provider", provider.ID())
			continue
		}

		task := tracker.Add(provider.ID())

		group.Go(func() error {
			outcomes[i] = r.runProvider(runCtx, tracker, task, provider, providerReq)
			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

func (r *analysisRunner) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.RunTimeout > 0 {
		return context.WithTimeout(ctx, r.opts.RunTimeout)
	}

	return context.WithCancel(ctx)
}

type analysis struct {
	findings []m.Finding
	err      error
}

func (r *analysisRunner) runProvider(
	ctx context.Context,
	tracker TaskTracker,
	task m.Task,
	provider Provider,
	req AnalysisRequest,
) ProviderOutcome {
	outcome := ProviderOutcome{Provider: provider.ID()}

	if err := ctx.Err(); err != nil {
		outcome.Status = OutcomeCancelled
		outcome.Err = err
		outcome.Task = r.finish(tracker, task, m.TaskCancelled, TaskUpdate{Cause: err.Error()})

		slog.Warn("Provider cancelled before start", "provider", provider.ID(), "error", err)

		return outcome
	}

	r.finish(tracker, task, m.TaskRunning, TaskUpdate{})

	providerCtx, cancel := r.providerContext(ctx, provider)
	defer cancel()

	start := time.Now()
	results := make(chan analysis, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				results <- analysis{err: fmt.Errorf("%w: %v", ErrProviderPanic, rec)}
			}
		}()

		findings, err := provider.Analyze(providerCtx, req)
		results <- analysis{findings: findings, err: err}
	}()

	var res analysis

	select {
	case res = <-results:
	case <-providerCtx.Done():
		select {
		case res = <-results:
		default:
			res = analysis{err: providerCtx.Err()}
		}
	}

	outcome.Duration = time.Since(start)
	outcome.Status, outcome.Err = classify(ctx, providerCtx, res.err)

	switch outcome.Status {
	case OutcomeCompleted:
		outcome.Findings = res.findings
		outcome.Task = r.finish(tracker, task, m.TaskCompleted, TaskUpdate{
			Findings: len(res.findings),
			Duration: outcome.Duration,
		})

		slog.Info("Provider completed", "provider", provider.ID(), "findings", len(res.findings), "duration", outcome.Duration)
	case OutcomeCancelled:
		outcome.Task = r.finish(tracker, task, m.TaskCancelled, TaskUpdate{
			Duration: outcome.Duration,
			Cause:    outcome.Err.Error(),
		})

		slog.Warn("Provider cancelled", "provider", provider.ID(), "error", outcome.Err)
	case OutcomeFailed, OutcomeTimeout, OutcomeSkipped:
		outcome.Task = r.finish(tracker, task, m.TaskFailed, TaskUpdate{
			Duration: outcome.Duration,
			Cause:    outcome.Err.Error(),
		})

		slog.Error("Provider failed", "provider", provider.ID(), "status", outcome.Status, "error", outcome.Err)
	}

	return outcome
}

func (r *analysisRunner) providerContext(ctx context.Context, provider Provider) (context.Context, context.CancelFunc) {
	timeout := r.opts.ProviderTimeout
	if tp, ok := provider.(TimeoutProvider); ok && tp.Timeout() > 0 {
		timeout = tp.Timeout()
	}

	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}

	return context.WithCancel(ctx)
}

func (r *analysisRunner) finish(tracker TaskTracker, task m.Task, next m.TaskState, update TaskUpdate) m.Task {
	updated, err := tracker.Transition(task.ID, next, update)
	if err != nil {
		slog.Error("Failed to update task", "provider", task.Provider, "error", err)
		return task
	}

	return updated
}

// classify maps a provider error onto an outcome status. A run cancelled by
// the caller is "cancelled"; any missed deadline is "timeout".
func classify(runCtx, providerCtx context.Context, err error) (OutcomeStatus, error) {
	if err == nil {
		return OutcomeCompleted, nil
	}

	if errors.Is(runCtx.Err(), context.Canceled) {
		return OutcomeCancelled, err
	}

	if providerCtx.Err() != nil && errors.Is(providerCtx.Err(), context.DeadlineExceeded) {
		return OutcomeTimeout, fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}

	return OutcomeFailed, err
}

// applicableRequest builds the private request of one provider: copies of
// the hunks and segments it supports and its own copy of the config.
func applicableRequest(provider Provider, req RunRequest) AnalysisRequest {
	out := AnalysisRequest{
		Repository:  req.Repository,
		PullRequest: req.PullRequest,
		Hunks:       []m.DiffHunk{},
		Segments:    []m.CodeSegment{},
		Config:      req.Config.Clone(),
	}

	supported := map[m.Path]bool{}

	for _, hunk := range req.Hunks {
		if provider.Supports(hunk.Path, m.DetectLanguage(hunk.Path)) {
			supported[hunk.Path] = true
			out.Hunks = append(out.Hunks, hunk)
		}
	}

	for _, seg := range req.Segments {
		if supported[seg.Path] {
			out.Segments = append(out.Segments, seg.Clone())
		}
	}

	return out
}
