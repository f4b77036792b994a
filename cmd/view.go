package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"prscore.dev/pkg/prscore/internal/domain"
	m "prscore.dev/pkg/prscore/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [run-id]",
		Short: "View stored review runs",
		Long:  "List the runs stored in the output directory, or show one run in full.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewArgs := domain.ViewArgs{Reports: m.Path(viper.GetString(outputFlagName))}
			if len(args) == 1 {
				viewArgs.RunID = args[0]
			}

			return newWorkflow(runnerOptions()).View(cmd.Context(), viewArgs)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
