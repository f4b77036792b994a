// Package cmd provides the root command and CLI setup for prscore.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/controller"
	"prscore.dev/pkg/prscore/internal/domain"
	"prscore.dev/pkg/prscore/internal/domain/providers"
	m "prscore.dev/pkg/prscore/internal/model"
)

var diffSource adapter.DiffSourceAdapter
var reviewConfig adapter.ReviewConfigAdapter
var reportStore adapter.ReportStore
var reportWriter adapter.ReportWriter
var commandRunner adapter.CommandRunnerAdapter
var registry providers.Registry
var ui controller.UI

// newWorkflow builds the review pipeline for one command invocation.
var newWorkflow = buildWorkflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// reviewConfigFlag points at the review config file or the directory holding it.
var reviewConfigFlag string

var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	diffSource = adapter.NewLocalDiffSourceAdapter(os.Stdin)
	reviewConfig = adapter.NewLocalReviewConfigAdapter()
	reportStore = adapter.NewLocalReportStore("")
	reportWriter = adapter.NewLocalReportWriter()
	commandRunner = adapter.NewLocalCommandRunnerAdapter(configFolderPath, viper.GetDuration(commandTimeoutKey))
	registry = providers.NewRegistry(commandRunner)
}

const diffSourceHelp = `The diff is a multi-file unified diff as produced by git diff. Pass - or
omit the argument to read it from standard input:
  git diff main...HEAD | prscore run
  prscore run changes.diff`

const rootLongDescription = `prscore reviews the diff of a pull request. It splits the changed code into
segments, runs the configured analysis providers concurrently, and turns their
findings into per-dimension quality scores between 0 and 100.

` + diffSourceHelp

const runLongDescription = `Review a diff and store the scored run in the output directory.

` + diffSourceHelp

const segmentsLongDescription = `Show how a diff is split into segments without analysing it.

` + diffSourceHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prscore",
		Short: "Pull request quality scoring tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for stored review runs",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVarP(&reviewConfigFlag, reviewConfigFlagName, "c", viper.GetString(reviewConfigKey), "review config file, or the directory containing .prscore-review.yaml")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(reviewConfigFlagName), reviewConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "write debug logs")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running review; providers still running are
// reported as cancelled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func buildWorkflow(opts domain.RunnerOptions) domain.Workflow {
	displayTask := func(task m.Task) {
		ui.DisplayTask(context.Background(), task)
	}

	return domain.NewWorkflow(
		diffSource,
		reviewConfig,
		reportStore,
		ui,
		domain.NewSegmenter(),
		domain.NewAnalysisRunner(opts, displayTask),
		domain.NewAggregator(),
		domain.NewScoringEngine(),
		domain.NewRunAssembler(),
		registry.Build,
	)
}

func runnerOptions() domain.RunnerOptions {
	return domain.RunnerOptions{
		Workers:         viper.GetInt(runParallelConfigKey),
		ProviderTimeout: viper.GetDuration(providerTimeoutKey),
		RunTimeout:      viper.GetDuration(runTimeoutKey),
	}
}

func diffArg(args []string) m.Path {
	if len(args) == 0 || args[0] == "" {
		return adapter.StdinSource
	}

	return m.Path(args[0])
}
