package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

// rescoreCmd represents the rescore command.
var rescoreCmd = newRescoreCmd()

func newRescoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescore <run-id>",
		Short: "Score a stored run again",
		Long: `Recompute the scores of a stored run under the current review config and
store the result as a new run. Findings are not re-analysed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := newWorkflow(runnerOptions()).Rescore(cmd.Context(), domain.RescoreArgs{
				Reports: m.Path(viper.GetString(outputFlagName)),
				Config:  m.Path(viper.GetString(reviewConfigKey)),
				RunID:   args[0],
			})

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}
