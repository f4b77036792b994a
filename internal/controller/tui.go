package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	m "prscore.dev/pkg/prscore/internal/model"
	pkg "prscore.dev/pkg/prscore/pkg"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	scoreStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder())
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
	input  io.Reader

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI reading keys from input.
func NewTUI(output io.Writer, input io.Reader) *TUI {
	return &TUI{output: output, input: input}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return errors.New("tui already started")
	}

	cfg := newStartConfig(options...)
	t.program = tea.NewProgram(
		newRunModel(cfg.mode),
		tea.WithOutput(t.output),
		tea.WithInput(t.input),
		tea.WithContext(ctx),
	)
	t.done = make(chan struct{})

	program, done := t.program, t.done

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			slog.Error("TUI stopped", "error", err)
		}
	}()

	return nil
}

// Close stops the program and waits for it to restore the terminal.
func (t *TUI) Close(ctx context.Context) {
	program, done := t.current()
	if program == nil {
		return
	}

	program.Quit()

	select {
	case <-done:
	case <-ctx.Done():
		program.Kill()
	}
}

// Wait blocks until the user quits.
func (t *TUI) Wait(ctx context.Context) {
	_, done := t.current()
	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// DisplaySegments shows the segmentation table.
func (t *TUI) DisplaySegments(ctx context.Context, segments []m.CodeSegment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.send(bodyMsg(renderSegmentsTable(segments)))

	return nil
}

// DisplayTask updates the live provider list.
func (t *TUI) DisplayTask(_ context.Context, task m.Task) {
	t.send(taskMsg(task))
}

// DisplayRunResult shows the final scores and findings.
func (t *TUI) DisplayRunResult(ctx context.Context, run m.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.send(bodyMsg(renderRunBody(run)))

	return nil
}

// DisplayRuns shows stored runs.
func (t *TUI) DisplayRuns(ctx context.Context, runs pkg.FileSpill[m.RunResult]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	table, err := renderRunsTable(runs)
	if err != nil {
		return err
	}

	t.send(bodyMsg(table))

	return nil
}

func (t *TUI) current() (*tea.Program, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.program, t.done
}

func (t *TUI) send(msg tea.Msg) {
	if program, _ := t.current(); program != nil {
		program.Send(msg)
	}
}

type taskMsg m.Task

type bodyMsg string

// runModel is the Bubble Tea model shared by every mode: a live task list
// (review mode only) followed by a rendered body once the work is done.
type runModel struct {
	mode    StartMode
	spinner spinner.Model
	order   []string
	tasks   map[string]m.Task
	body    string
	done    bool
}

func newRunModel(mode StartMode) runModel {
	return runModel{
		mode:    mode,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		tasks:   map[string]m.Task{},
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return rm, tea.Quit
		}

		return rm, nil

	case taskMsg:
		task := m.Task(msg)
		if _, ok := rm.tasks[task.ID]; !ok {
			rm.order = append(rm.order, task.ID)
		}

		rm.tasks[task.ID] = task

		return rm, nil

	case bodyMsg:
		rm.body = string(msg)
		rm.done = true

		return rm, nil

	case spinner.TickMsg:
		if rm.done {
			return rm, nil
		}

		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("prscore"))
	b.WriteString("\n\n")

	if rm.mode == ModeReview {
		for _, id := range rm.order {
			b.WriteString(rm.renderTask(rm.tasks[id]))
			b.WriteString("\n")
		}

		b.WriteString("\n")
	}

	if !rm.done {
		fmt.Fprintf(&b, "%s working...\n", rm.spinner.View())
		return b.String()
	}

	b.WriteString(rm.body)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("q: quit"))
	b.WriteString("\n")

	return b.String()
}

func (rm runModel) renderTask(task m.Task) string {
	switch task.State {
	case m.TaskRunning:
		return fmt.Sprintf("%s %s", rm.spinner.View(), task.Provider)
	case m.TaskCompleted:
		return okStyle.Render("✓ "+task.Provider) +
			mutedStyle.Render(fmt.Sprintf("  %d finding(s) in %s", task.Findings, formatDuration(task.Duration)))
	case m.TaskFailed:
		return failStyle.Render("✗ "+task.Provider) + mutedStyle.Render("  "+task.Cause)
	case m.TaskCancelled:
		return mutedStyle.Render("- " + task.Provider + " cancelled")
	case m.TaskPending:
	}

	return mutedStyle.Render("· " + task.Provider)
}

func renderRunBody(run m.RunResult) string {
	var b strings.Builder

	b.WriteString(scoreStyle.Render("Score " + formatScore(run.Scores.Total)))
	b.WriteString("\n")
	b.WriteString(renderRunSummary(run))
	b.WriteString("\n")
	b.WriteString(renderScoresTable(run.Scores))

	if len(run.Findings) > 0 {
		b.WriteString("\n")
		b.WriteString(renderFindingsTable(run.Findings))
	}

	for _, warning := range run.Stats.Warnings {
		b.WriteString(failStyle.Render(fmt.Sprintf("warning: %s %s: %s", warning.Provider, warning.Kind, warning.Message)))
		b.WriteString("\n")
	}

	return b.String()
}
