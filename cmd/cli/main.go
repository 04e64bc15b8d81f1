package main

import (
	"fmt"
	"os"

	"featurelab/internal"
	"featurelab/internal/config"
	"featurelab/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "featurelab-cli",
		Short:         "Process and cluster tabular datasets from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if debug {
				internal.DefaultLogger.SetLevel(internal.LogLevelDebug)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newDescribeCmd(),
		newInitCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

// pipelineOptions reads estimator settings from the environment
func pipelineOptions() (pipeline.Options, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return pipeline.Options{}, nil, err
	}
	return pipeline.OptionsFromConfig(cfg.Pipeline), cfg, nil
}
