// Package controller provides output adapters for displaying review runs.
package controller

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	m "prscore.dev/pkg/prscore/internal/model"
	pkg "prscore.dev/pkg/prscore/pkg"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeReview StartMode = iota
	ModeSegments
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithReviewMode shows live provider progress followed by the run result.
func WithReviewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeReview
	}
}

// WithSegmentsMode shows a segmentation listing.
func WithSegmentsMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeSegments
	}
}

// WithViewMode shows stored runs.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func newStartConfig(options ...StartOption) StartConfig {
	var cfg StartConfig
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// UI displays review progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplaySegments(ctx context.Context, segments []m.CodeSegment) error
	// DisplayTask is called from provider goroutines on every task state
	// change and must be safe for concurrent use.
	DisplayTask(ctx context.Context, task m.Task)
	DisplayRunResult(ctx context.Context, run m.RunResult) error
	DisplayRuns(ctx context.Context, runs pkg.FileSpill[m.RunResult]) error
}

// NewUI picks the interactive TUI on a terminal and plain text otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout(), cmd.InOrStdin())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
