package main

// #region imports
import (
	"fmt"

	"github.com/spf13/cobra"

	"edittrace/internal/config"
)

// #endregion imports

// #region root

var (
	flagConfig string
	flagDB     string
)

var rootCmd = &cobra.Command{
	Use:           "edittrace",
	Short:         "trajectory tracking and visualization for iterative editing",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to session database")
	rootCmd.AddCommand(runCmd, replayCmd, inspectCmd)
}

// loadOptions resolves the effective options: defaults, overlaid by the
// --config file when given.
func loadOptions() (config.Options, error) {
	if flagConfig == "" {
		return config.DefaultOptions(), nil
	}
	opts, err := config.Load(flagConfig)
	if err != nil {
		return opts, fmt.Errorf("load %s: %w", flagConfig, err)
	}
	return opts, nil
}

// #endregion root
