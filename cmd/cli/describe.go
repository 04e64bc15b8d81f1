package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"featurelab/adapters/excel"
	"featurelab/internal/pipeline"
	"featurelab/internal/pipelinefile"

	"github.com/spf13/cobra"
)

func printStats(w io.Writer, stats []pipeline.ColumnStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "feature\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
	for _, s := range stats {
		r := s.Rounded(4)
		fmt.Fprintf(tw, "%s\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
			r.Feature, r.Count, r.Mean, r.Std, r.Min, r.Q25, r.Q50, r.Q75, r.Max)
	}
	return tw.Flush()
}

func newDescribeCmd() *cobra.Command {
	var dataPath, configPath string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print descriptive statistics of the processed features",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := excel.ReadFile(dataPath, excel.DefaultReaderConfig())
			if err != nil {
				return err
			}
			sel := pipeline.InferSelection(table)
			if configPath != "" {
				pf, err := pipelinefile.Load(configPath)
				if err != nil {
					return err
				}
				if sel, err = pf.ApplySelection(sel); err != nil {
					return err
				}
			}
			processed, err := pipeline.Process(table, sel)
			if err != nil {
				return err
			}
			stats, err := pipeline.Describe(&processed.Table)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "dataset file (csv, xlsx, json, txt)")
	cmd.Flags().StringVar(&configPath, "config", "", "pipeline definition whose selection is applied first")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
