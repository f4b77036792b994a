package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

type mockWorkflow struct {
	mock.Mock
}

func (w *mockWorkflow) Review(ctx context.Context, args domain.ReviewArgs) (m.RunResult, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.RunResult), ret.Error(1)
}

func (w *mockWorkflow) Segments(ctx context.Context, args domain.SegmentsArgs) ([]m.CodeSegment, error) {
	ret := w.Called(ctx, args)

	segments, _ := ret.Get(0).([]m.CodeSegment)

	return segments, ret.Error(1)
}

func (w *mockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) Rescore(ctx context.Context, args domain.RescoreArgs) (m.RunResult, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.RunResult), ret.Error(1)
}

// useMockWorkflow replaces the workflow factory and records the runner
// options each command builds its workflow with.
func useMockWorkflow(t *testing.T) (*mockWorkflow, *domain.RunnerOptions) {
	t.Helper()

	wf := new(mockWorkflow)
	captured := new(domain.RunnerOptions)

	original := newWorkflow
	newWorkflow = func(opts domain.RunnerOptions) domain.Workflow {
		*captured = opts
		return wf
	}

	t.Cleanup(func() {
		newWorkflow = original
		wf.AssertExpectations(t)
	})

	return wf, captured
}

// newTestRootCmd builds a root command with sub attached whose logs go to a
// temporary file.
func newTestRootCmd(t *testing.T, sub ...*cobra.Command) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	viper.Set(logFilenameKey, filepath.Join(t.TempDir(), "prscore.log"))
	t.Cleanup(func() {
		viper.Set(logFilenameKey, nil)
		// Rebind config keys to pristine flags so parsed values do not leak.
		_ = newRootCmd()
		_ = newRunCmd()
	})

	out := &bytes.Buffer{}

	cmd := newRootCmd()
	cmd.AddCommand(sub...)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	return cmd, out
}

func TestDiffArg(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want m.Path
	}{
		{"none", nil, adapter.StdinSource},
		{"empty", []string{""}, adapter.StdinSource},
		{"dash", []string{"-"}, adapter.StdinSource},
		{"file", []string{"changes.diff"}, m.Path("changes.diff")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diffArg(tt.args))
		})
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "prscore", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{outputFlagName, reviewConfigFlagName, verboseFlagName} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd, out := newTestRootCmd(t)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "git diff main...HEAD | prscore run")
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, name := range []string{"run", "segments", "view", "rescore", "init", "version"} {
		assert.True(t, names[name], name)
	}
}

func TestInit(t *testing.T) {
	assert.NotNil(t, ui)
	assert.NotNil(t, diffSource)
	assert.NotNil(t, reviewConfig)
	assert.NotNil(t, reportStore)
	assert.NotNil(t, reportWriter)
	assert.NotNil(t, commandRunner)
	assert.NotNil(t, registry)
	assert.NotNil(t, buildWorkflow(runnerOptions()))
}

func TestRunnerOptions_Defaults(t *testing.T) {
	opts := runnerOptions()

	assert.Equal(t, defaultRunParallel, opts.Workers)
	assert.Equal(t, defaultProviderTimeout, opts.ProviderTimeout)
	assert.Equal(t, defaultRunTimeout, opts.RunTimeout)
}

func TestExecute(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() { rootCmd = originalRootCmd }()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	// Execute must not exit on success.
	Execute()
}

func TestExecute_ProcessLevel_Success(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Println("success")
				return nil
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Success")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS=1")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, string(output), "success")
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute() // exits with status 1
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	require.Error(t, err)

	if exitErr, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 1, exitErr.ExitCode())
	} else {
		assert.Fail(t, "expected exec.ExitError", "got %T", err)
	}

	assert.Contains(t, string(output), "error occurred")
}
