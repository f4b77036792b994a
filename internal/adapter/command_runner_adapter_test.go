package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLocalCommandRunnerAdapter_Run_Success(t *testing.T) {
	adapter := NewLocalCommandRunnerAdapter(t.TempDir(), 0)

	result, err := adapter.Run(context.Background(), []byte("[]\n"), "cat")
	if err != nil {
		t.Fatalf("Run() error = %v, stderr = %s", err, result.Stderr)
	}

	if result.Stdout != "[]\n" {
		t.Fatalf("Run() stdout = %q, want stdin echoed", result.Stdout)
	}

	if result.ExitCode != 0 {
		t.Fatalf("Run() exit code = %d, want 0", result.ExitCode)
	}
}

func TestLocalCommandRunnerAdapter_Run_Failure(t *testing.T) {
	adapter := NewLocalCommandRunnerAdapter(t.TempDir(), 0)

	result, err := adapter.Run(context.Background(), nil, "sh", "-c", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatalf("Run() expected error for non-zero exit")
	}

	if result.ExitCode != 3 {
		t.Fatalf("Run() exit code = %d, want 3", result.ExitCode)
	}

	if !strings.Contains(result.Stderr, "broken") {
		t.Fatalf("Run() stderr = %q, want diagnostic output", result.Stderr)
	}
}

func TestLocalCommandRunnerAdapter_Run_Timeout(t *testing.T) {
	adapter := NewLocalCommandRunnerAdapter(t.TempDir(), 50*time.Millisecond)

	start := time.Now()

	_, err := adapter.Run(context.Background(), nil, "sleep", "5")
	if err == nil {
		t.Fatalf("Run() expected timeout error")
	}

	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Run() took %v, want it bounded by the timeout", elapsed)
	}
}

func TestLocalCommandRunnerAdapter_Run_ContextDeadlineGoverns(t *testing.T) {
	adapter := NewLocalCommandRunnerAdapter(t.TempDir(), 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := adapter.Run(ctx, nil, "sleep", "0.3"); err != nil {
		t.Fatalf("Run() error = %v, want the context deadline to replace the adapter timeout", err)
	}
}

func TestLocalCommandRunnerAdapter_Run_ShorterContextDeadline(t *testing.T) {
	adapter := NewLocalCommandRunnerAdapter(t.TempDir(), time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := adapter.Run(ctx, nil, "sleep", "5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLocalCommandRunnerAdapter_Run_MissingBinary(t *testing.T) {
	adapter := NewLocalCommandRunnerAdapter(t.TempDir(), 0)

	result, err := adapter.Run(context.Background(), nil, "prscore-no-such-binary")
	if err == nil {
		t.Fatalf("Run() expected error for missing binary")
	}

	if result.ExitCode != -1 {
		t.Fatalf("Run() exit code = %d, want -1", result.ExitCode)
	}
}
