package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"prscore.dev/pkg/prscore/internal/adapter"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

var runParallelFlag int
var runProviderTimeoutFlag time.Duration
var runTimeoutFlag time.Duration
var runStrategyFlag string
var runFormatFlag string
var runOutFlag string
var runRepoFlag string
var runPullFlag string
var runCostFlag float64

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [diff-file|-]",
		Short: "Review a diff and score it",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var format adapter.ReportFormat

			if name := viper.GetString(runFormatKey); name != "" {
				parsed, err := adapter.ParseReportFormat(name)
				if err != nil {
					return err
				}

				format = parsed
			}

			var cost *float64
			if cmd.Flags().Changed("cost") {
				cost = &runCostFlag
			}

			run, err := newWorkflow(runnerOptions()).Review(cmd.Context(), domain.ReviewArgs{
				Diff:        diffArg(args),
				Config:      m.Path(viper.GetString(reviewConfigKey)),
				Reports:     m.Path(viper.GetString(outputFlagName)),
				Repository:  runRepoFlag,
				PullRequest: runPullFlag,
				Strategy:    viper.GetString(runStrategyKey),
				Cost:        cost,
			})
			if err != nil {
				return err
			}

			if format == "" {
				return nil
			}

			return exportRun(cmd.OutOrStdout(), run, format, runOutFlag)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "maximum number of providers running at once (0 = unlimited)")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().DurationVar(&runProviderTimeoutFlag, providerTimeoutFlagName, viper.GetDuration(providerTimeoutKey), "deadline of each provider (0 = none)")
	bindFlagToConfig(cmd.Flags().Lookup(providerTimeoutFlagName), providerTimeoutKey)

	cmd.Flags().DurationVar(&runTimeoutFlag, runTimeoutFlagName, viper.GetDuration(runTimeoutKey), "deadline of the whole run (0 = none)")
	bindFlagToConfig(cmd.Flags().Lookup(runTimeoutFlagName), runTimeoutKey)

	cmd.Flags().StringVar(&runStrategyFlag, strategyFlagName, viper.GetString(runStrategyKey), "segmentation strategy: function, class, lines, intelligent or file (default from review config)")
	bindFlagToConfig(cmd.Flags().Lookup(strategyFlagName), runStrategyKey)

	cmd.Flags().StringVarP(&runFormatFlag, formatFlagName, "f", viper.GetString(runFormatKey), "also export the run as json, yaml or sarif")
	bindFlagToConfig(cmd.Flags().Lookup(formatFlagName), runFormatKey)

	cmd.Flags().StringVar(&runOutFlag, "out", "", "export file (default stdout)")
	cmd.Flags().StringVar(&runRepoFlag, "repo", "", "repository the pull request belongs to")
	cmd.Flags().StringVar(&runPullFlag, "pull", "", "pull request identifier")
	cmd.Flags().Float64Var(&runCostFlag, "cost", 0, "cost of the run, recorded as is")
}

func exportRun(stdout io.Writer, run m.RunResult, format adapter.ReportFormat, out string) error {
	if out == "" || out == string(adapter.StdinSource) {
		return reportWriter.Write(stdout, run, format)
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := reportWriter.Write(file, run, format); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}
