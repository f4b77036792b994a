package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"prscore.dev/pkg/prscore/internal/adapter"
	m "prscore.dev/pkg/prscore/internal/model"
)

var initReviewFlag bool

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default prscore.yaml configuration file",
		Long: `Create a prscore.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually. With --review, also write a
.prscore-review.yaml holding the default scoring weights, providers and
segmentation.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := viper.SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			if !initReviewFlag {
				return nil
			}

			return writeReviewConfig(filepath.Join(configFolderPath, adapter.ReviewConfigFile))
		},
	}

	cmd.Flags().BoolVar(&initReviewFlag, "review", false, "also write a default "+adapter.ReviewConfigFile)

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func writeReviewConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("review config %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check review config: %w", err)
	}

	data, err := yaml.Marshal(m.DefaultReviewConfig())
	if err != nil {
		return fmt.Errorf("failed to encode review config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write review config: %w", err)
	}

	return nil
}
