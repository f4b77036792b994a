package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

const defaultCommandTimeout = 60 * time.Second

// CommandResult captures the output streams of a finished command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunnerAdapter runs external analyzers for the command provider.
type CommandRunnerAdapter interface {
	// Run executes name with args, writing stdin to the process. A non-zero
	// exit is returned as an error together with the captured output.
	Run(ctx context.Context, stdin []byte, name string, args ...string) (CommandResult, error)
}

// LocalCommandRunnerAdapter provides a concrete implementation using os/exec.
type LocalCommandRunnerAdapter struct {
	timeout time.Duration
	workDir string
}

// NewLocalCommandRunnerAdapter constructs a LocalCommandRunnerAdapter running
// commands in workDir. The timeout only bounds calls whose context carries no
// deadline; a non-positive timeout means 60s.
func NewLocalCommandRunnerAdapter(workDir string, timeout time.Duration) *LocalCommandRunnerAdapter {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	return &LocalCommandRunnerAdapter{timeout: timeout, workDir: workDir}
}

// Run implements CommandRunnerAdapter.
func (a *LocalCommandRunnerAdapter) Run(ctx context.Context, stdin []byte, name string, args ...string) (CommandResult, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = a.workDir
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if err != nil {
		slog.Debug("Command failed", "command", name, "exit", result.ExitCode, "error", err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("command %s: %w", name, ctxErr)
		}

		return result, fmt.Errorf("command %s: %w", name, err)
	}

	return result, nil
}
