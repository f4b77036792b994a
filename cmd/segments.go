package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

var segmentsStrategyFlag string

// segmentsCmd represents the segments command.
var segmentsCmd = newSegmentsCmd()

func newSegmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments [diff-file|-]",
		Short: "List the segments of a diff",
		Long:  segmentsLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy := segmentsStrategyFlag
			if strategy == "" {
				strategy = viper.GetString(runStrategyKey)
			}

			_, err := newWorkflow(runnerOptions()).Segments(cmd.Context(), domain.SegmentsArgs{
				Diff:     diffArg(args),
				Config:   m.Path(viper.GetString(reviewConfigKey)),
				Strategy: strategy,
			})

			return err
		},
	}

	cmd.Flags().StringVar(&segmentsStrategyFlag, strategyFlagName, "", "segmentation strategy (default from run.strategy or the review config)")

	return cmd
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
}
